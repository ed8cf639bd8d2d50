// Package report accumulates the outcome of a batch run where individual
// items may fail without stopping the batch.
package report

import (
	"errors"
	"fmt"
	"log/slog"
)

type ItemError struct {
	Item string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Item, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

type Report struct {
	Processed int
	Created   int
	Updated   int
	Skipped   int
	Failures  []ItemError
}

func New() *Report {
	return &Report{}
}

// Fail records a failed item and logs it.
func (r *Report) Fail(item string, err error) {
	slog.Error("Item failed", "item", item, "error", err)
	r.Failures = append(r.Failures, ItemError{Item: item, Err: err})
}

func (r *Report) Failed() int {
	return len(r.Failures)
}

// Err joins every recorded failure, or returns nil when the batch was clean.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// LogValue lets a report be passed to slog as a single attribute.
func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("processed", r.Processed),
		slog.Int("created", r.Created),
		slog.Int("updated", r.Updated),
		slog.Int("skipped", r.Skipped),
		slog.Int("failed", len(r.Failures)),
	)
}
