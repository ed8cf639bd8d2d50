package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	feedRepo    database.FeedRepository
	entryRepo   database.BlogEntryRepository
	boxRepo     database.BoxRepository
	configCache *feed.ConfigCache
	fetcher     *feed.Fetcher
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *feed.ConfigCache, fetcher *feed.Fetcher, feedRepo database.FeedRepository,
	entryRepo database.BlogEntryRepository, boxRepo database.BoxRepository,
	interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		feedRepo:    feedRepo,
		entryRepo:   entryRepo,
		boxRepo:     boxRepo,
		configCache: configCache,
		fetcher:     fetcher,
		interval:    interval,
		workerCount: max(workerCount, 1),
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDueTasks(true)

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks(false)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueDueTasks queues an UpdateBlogTask for every enabled feed whose
// refresh interval has passed since its last import. On startup every
// enabled feed is queued.
func (s *Scheduler) enqueueDueTasks(startup bool) {
	feedConfigs := s.configCache.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
		return
	}

	slog.Debug("Processing enabled feed configurations for task scheduling", "count", len(feedConfigs), "startup", startup)

	now := time.Now().UTC()
	for _, feedConfig := range feedConfigs {
		if !startup && !s.isDue(feedConfig, now) {
			continue
		}

		task := NewUpdateBlogTask(feedConfig.Name, feedConfig, s.fetcher, s.feedRepo, s.entryRepo, s.boxRepo)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue UpdateBlogTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) isDue(feedConfig *feed.Config, now time.Time) bool {
	dbFeed, err := s.feedRepo.GetFeedByURL(feedConfig.URL)
	if err != nil {
		slog.Warn("Failed to get feed from database, skipping", "feed", feedConfig.Name, "error", err)
		return false
	}
	if dbFeed == nil || dbFeed.LastImport == nil {
		return true
	}

	next := dbFeed.LastImport.Add(time.Duration(feedConfig.Settings.RefreshInterval) * time.Second)
	if next.After(now) {
		slog.Debug("Feed not due for refresh yet", "feed", feedConfig.Name, "next_fetch_at", next)
		return false
	}
	return true
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := RetryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// RetryDelay is the capped exponential backoff before retry n (1-based).
func RetryDelay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	if retry > 6 {
		return 30 * time.Second
	}
	return min(time.Duration(1<<uint(retry-1))*time.Second, 30*time.Second)
}
