// Package types contains batch-level summaries shared by the service and the CLI.
package types

import "time"

// RunStats aggregates the outcome of one ingestion run. Per-item failures
// never abort a batch, so these counts are the only batch-level signal.
type RunStats struct {
	Payloads         int           `json:"payloads"`
	Items            int           `json:"items"`
	Malformed        int           `json:"malformed"`
	DuplicateItems   int           `json:"duplicate_items"`
	Signals          int           `json:"signals"`
	Unresolved       int           `json:"unresolved"`
	DuplicateSignals int           `json:"duplicate_signals"`
	Assumptions      int           `json:"assumptions"`
	Rejected         int           `json:"rejected"`
	Errors           int           `json:"errors"`
	Duration         time.Duration `json:"duration"`
}

// Skipped is everything filtered out before producing an assumption.
func (s RunStats) Skipped() int {
	return s.Malformed + s.DuplicateItems + s.Unresolved + s.DuplicateSignals
}

// Empty reports whether the run produced nothing the caller could use.
func (s RunStats) Empty() bool {
	return s.Assumptions == 0
}

// StepResult is the outcome of one named CLI step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}
