package report

import (
	"errors"
	"testing"
)

func TestReportErr(t *testing.T) {
	r := New()
	if r.Err() != nil {
		t.Errorf("Expected nil error for clean report, got: %v", r.Err())
	}

	sentinel := errors.New("boom")
	r.Fail("about/broken", sentinel)
	r.Fail("about/other", errors.New("other"))

	if r.Failed() != 2 {
		t.Errorf("Expected 2 failures, got %d", r.Failed())
	}

	err := r.Err()
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected joined error to wrap sentinel, got: %v", err)
	}

	var itemErr ItemError
	if !errors.As(err, &itemErr) || itemErr.Item != "about/broken" {
		t.Errorf("Expected first ItemError for about/broken, got %+v", itemErr)
	}
	if itemErr.Error() != "about/broken: boom" {
		t.Errorf("Expected formatted item error, got %q", itemErr.Error())
	}
}
