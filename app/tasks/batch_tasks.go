package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/content-comb/app/report"
)

// BatchRunner is a batch job that folds per-item failures into a report.
type BatchRunner func(ctx context.Context) (*report.Report, error)

// BatchTask wraps the legacy import, story image repair and story migration
// jobs. Item failures do not fail the task; they stay available through
// Report. Only whole-run failures are returned, and those are not retried.
type BatchTask struct {
	Task
	run    BatchRunner
	report *report.Report
}

func newBatchTask(taskType TaskType, target string, run BatchRunner) *BatchTask {
	t := &BatchTask{
		Task: NewTask(taskType, target),
		run:  run,
	}
	t.MaxRetries = 0
	return t
}

func NewImportPagesTask(root string, run BatchRunner) *BatchTask {
	return newBatchTask(TaskTypeImportPages, root, run)
}

func NewRepairStoryImagesTask(run BatchRunner) *BatchTask {
	return newBatchTask(TaskTypeRepairStoryImages, "success-stories", run)
}

func NewMigrateStoriesTask(run BatchRunner) *BatchTask {
	return newBatchTask(TaskTypeMigrateStories, "success-stories", run)
}

func (t *BatchTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rep, err := t.run(ctx)
	t.report = rep
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"target", t.Target,
		"duration", t.GetDuration(),
		"report", rep)

	return nil
}

// Report returns the outcome of the last run, or nil before the first one.
func (t *BatchTask) Report() *report.Report {
	return t.report
}
