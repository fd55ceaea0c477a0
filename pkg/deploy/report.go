package deploy

import (
	"math"
	"time"
)

// SourceKind tells how a rule's source was staged
type SourceKind string

const (
	SourceDirectory SourceKind = "directory"
	SourceZip       SourceKind = "zip"
)

// RuleResult records what happened to one copy rule
type RuleResult struct {
	Index       int
	Source      string
	Destination string
	Kind        SourceKind
	// HoistedRoot is the zip's single top-level folder that was flattened
	HoistedRoot string
	// Staged counts files in the scratch directory after staging
	Staged int
	// Patched counts files rewritten by replace rules
	Patched int
	// Published counts files copied to the destination
	Published int
	Bytes     int64
	// BackupPath is empty when no backup was written
	BackupPath string
	// Cleared is true when an existing destination was emptied
	Cleared bool
}

// Report summarizes a deploy run. On failure it holds the rules that
// completed plus the failing rule as far as it got.
type Report struct {
	RunID      string
	ConfigPath string
	DryRun     bool
	Rules      []RuleResult
	Started    time.Time
	Elapsed    time.Duration
}

// Files totals published files across rules
func (r *Report) Files() int {
	n := 0
	for _, rule := range r.Rules {
		n += rule.Published
	}
	return n
}

// Bytes totals published bytes across rules
func (r *Report) Bytes() int64 {
	var n int64
	for _, rule := range r.Rules {
		n += rule.Bytes
	}
	return n
}

// Seconds is the elapsed time as reported to operators: 1 + seconds, rounded
func (r *Report) Seconds() int {
	return int(math.Round(1 + r.Elapsed.Seconds()))
}
