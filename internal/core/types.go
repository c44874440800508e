package core

import (
	"time"
)

// Phase indicates the current stage of an import run.
type Phase string

const (
	PhaseStarting  Phase = "starting"
	PhaseParsing   Phase = "parsing"
	PhaseImporting Phase = "importing"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
)

// Terminal reports whether no further progress follows p.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// Progress is a snapshot of a running import.
type Progress struct {
	RunID           string `json:"run_id"`
	Entity          string `json:"entity"`
	FileName        string `json:"file_name,omitempty"`
	Phase           Phase  `json:"phase"`
	Total           int    `json:"total"`
	Processed       int    `json:"processed"`
	Written         int    `json:"written"`
	Skipped         int    `json:"skipped"`
	AccountsCreated int    `json:"accounts_created,omitempty"`
	Error           string `json:"error,omitempty"`
	Message         string `json:"message,omitempty"`

	// Seq increases with every published update; long-poll clients pass the
	// last value they saw to wait for the next one.
	Seq int `json:"seq"`
}

// Percent returns progress as an integer percentage (0-100). The
// denominator is the number of rows with a valid code.
func (p Progress) Percent() int {
	if p.Phase == PhaseComplete {
		return 100
	}
	if p.Total <= 0 {
		return 0
	}
	pct := p.Processed * 100 / p.Total
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Result is the final summary of an import run.
type Result struct {
	RunID           string        `json:"run_id"`
	Entity          string        `json:"entity"`
	FileName        string        `json:"file_name,omitempty"`
	Phase           Phase         `json:"phase"`
	Total           int           `json:"total"`
	Written         int           `json:"written"`
	Skipped         int           `json:"skipped"`
	AccountsCreated int           `json:"accounts_created,omitempty"`
	Error           string        `json:"error,omitempty"`
	Message         string        `json:"message"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration_ns"`
}

// Failed reports whether the run ended in error.
func (r Result) Failed() bool { return r.Error != "" }

// ProgressFunc receives progress snapshots from a running import.
type ProgressFunc func(Progress)

// EntityInfo describes a registered schema for menus and the API.
type EntityInfo struct {
	Key          string   `json:"key"`
	Label        string   `json:"label"`
	Collection   string   `json:"collection"`
	Layout       string   `json:"layout"`
	SortField    string   `json:"sort_field"`
	SearchFields []string `json:"search_fields,omitempty"`
	CreatesUsers bool     `json:"creates_accounts,omitempty"`
}

// Observer receives import lifecycle events, typically for metrics.
type Observer interface {
	ImportStarted(entity string)
	ImportFinished(entity string, phase Phase, d time.Duration)
	RowsWritten(entity string, n int)
	RowsSkipped(entity string, n int)
	AccountsCreated(entity string, n int)
}

type nopObserver struct{}

func (nopObserver) ImportStarted(string) {}

func (nopObserver) ImportFinished(string, Phase, time.Duration) {}

func (nopObserver) RowsWritten(string, int) {}

func (nopObserver) RowsSkipped(string, int) {}

func (nopObserver) AccountsCreated(string, int) {}
