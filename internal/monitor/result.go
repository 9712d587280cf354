package monitor

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailure        Status = "failure"
	StatusSkipped        Status = "skipped"
)

// PassResult counts what one pass did. Err is set when the pass aborted.
type PassResult struct {
	Scanned int
	Created int
	Skipped int
	Failed  int
	Err     error
}

func (p PassResult) ok() bool {
	return p.Err == nil && p.Failed == 0
}

// RunResult is the outcome of one EnhancedInventoryMonitoring call.
type RunResult struct {
	Status      Status
	Cause       error
	Levels      PassResult
	Suggestions PassResult
	StartedAt   time.Time
	Duration    time.Duration
}

func (r RunResult) Message() string {
	switch r.Status {
	case StatusSuccess:
		return "Inventory monitoring completed successfully"
	case StatusSkipped:
		return "Inventory monitoring skipped: another run is in progress"
	case StatusPartialFailure:
		return fmt.Sprintf("Inventory monitoring completed with errors: %v", r.Cause)
	default:
		return fmt.Sprintf("Inventory monitoring failed: %v", r.Cause)
	}
}

func summarize(r *RunResult) {
	levelsOK, suggestionsOK := r.Levels.ok(), r.Suggestions.ok()
	switch {
	case levelsOK && suggestionsOK:
		r.Status = StatusSuccess
	case r.Levels.Err != nil && r.Suggestions.Err != nil:
		r.Status = StatusFailure
	default:
		r.Status = StatusPartialFailure
	}

	var causes []error
	if r.Levels.Err != nil {
		causes = append(causes, fmt.Errorf("inventory level check: %w", r.Levels.Err))
	}
	if r.Suggestions.Err != nil {
		causes = append(causes, fmt.Errorf("reorder suggestions: %w", r.Suggestions.Err))
	} else if r.Suggestions.Failed > 0 {
		causes = append(causes, fmt.Errorf("reorder suggestions: %d item(s) failed", r.Suggestions.Failed))
	}
	r.Cause = errors.Join(causes...)
}
