package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the serve command to keep blog feeds fresh in the background.
// Example usage:
//
//	scheduler := NewScheduler(configCache, fetcher, feedRepo, entryRepo, boxRepo, interval, workers)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewUpdateBlogTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
