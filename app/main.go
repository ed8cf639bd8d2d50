package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/lysyi3m/content-comb/app/api"
	"github.com/lysyi3m/content-comb/app/cfg"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/legacy"
	"github.com/lysyi3m/content-comb/app/report"
	"github.com/lysyi3m/content-comb/app/storage"
	"github.com/lysyi3m/content-comb/app/stories"
	"github.com/lysyi3m/content-comb/app/tasks"
)

type app struct {
	cfg         *cfg.Cfg
	repos       api.Repositories
	configCache *feed.ConfigCache
	fetcher     *feed.Fetcher
	media       *storage.Storage
}

func main() {
	appCfg, err := cfg.Load()
	if errors.Is(err, cfg.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Content Comb", "version", appCfg.Version, "command", string(appCfg.Command))

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "feeds_dir", appCfg.FeedsDir, "error", err)
		db.Close()
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "count", configCache.GetConfigCount())

	a := &app{
		cfg: appCfg,
		repos: api.Repositories{
			Pages:   database.NewPageRepository(db),
			Boxes:   database.NewBoxRepository(db),
			Feeds:   database.NewFeedRepository(db),
			Entries: database.NewBlogEntryRepository(db),
			Stories: database.NewStoryRepository(db),
		},
		configCache: configCache,
		fetcher:     feed.NewFetcher(&http.Client{}, feed.NewParser(), appCfg.UserAgent),
		media:       storage.New(afero.NewOsFs(), appCfg.MediaRoot, appCfg.MediaURL),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		slog.Error("Command failed", "command", string(appCfg.Command), "error", err)
		stop()
		db.Close()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context) error {
	switch a.cfg.Command {
	case cfg.CommandImportPages:
		source := afero.NewReadOnlyFs(afero.NewOsFs())
		importer := legacy.NewImporter(source, a.cfg.LegacyRoot, legacy.NewFileParser(), a.repos.Pages, a.media)
		return runBatch(ctx, tasks.NewImportPagesTask(a.cfg.LegacyRoot, importer.Import))

	case cfg.CommandRepairStoryImages:
		repairer := legacy.NewImageRepairer(a.repos.Pages, a.media, a.cfg.LegacyServer, a.cfg.ImageTimeout, a.cfg.UserAgent)
		return runBatch(ctx, tasks.NewRepairStoryImagesTask(repairer.Repair))

	case cfg.CommandMigrateStories:
		migrator := stories.NewMigrator(a.repos.Pages, a.repos.Stories)
		return runBatch(ctx, tasks.NewMigrateStoriesTask(migrator.Run))

	case cfg.CommandUpdateBlogs:
		return a.updateBlogs(ctx)

	case cfg.CommandServe:
		return a.serve(ctx)
	}

	return fmt.Errorf("unknown command %q", a.cfg.Command)
}

// runBatch runs task in the foreground. Item failures are logged by the
// task itself and turn into a non-zero exit once the run is over.
func runBatch(ctx context.Context, task *tasks.BatchTask) error {
	if err := tasks.Run(ctx, task); err != nil {
		return err
	}

	rep := task.Report()
	if rep == nil {
		rep = report.New()
	}
	if rep.Failed() > 0 {
		return fmt.Errorf("%d of %d items failed: %w", rep.Failed(), rep.Processed, rep.Err())
	}
	return nil
}

func (a *app) updateBlogs(ctx context.Context) error {
	configs := a.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		slog.Warn("No enabled feed configurations found", "feeds_dir", a.cfg.FeedsDir)
		return nil
	}

	var errs []error
	for name, feedConfig := range configs {
		task := tasks.NewUpdateBlogTask(name, feedConfig, a.fetcher, a.repos.Feeds, a.repos.Entries, a.repos.Boxes)
		if err := tasks.Run(ctx, task); err != nil {
			slog.Error("Blog update failed", "feed", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) serve(ctx context.Context) error {
	slog.Info("Starting background scheduler", "workers", a.cfg.WorkerCount, "interval", a.cfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(a.configCache, a.fetcher, a.repos.Feeds, a.repos.Entries, a.repos.Boxes,
		time.Duration(a.cfg.SchedulerInterval)*time.Second, a.cfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(a.configCache, a.fetcher, a.repos, scheduler)

	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      api.NewServer(handler, a.cfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", a.cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case serveErr = <-serverErrChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return serveErr
}
