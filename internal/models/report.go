package models

import (
	"fmt"
	"time"
)

// FieldDiff is the canonical/remote pair for a drifted field
type FieldDiff struct {
	Field     Field  `json:"field" yaml:"field"`
	Canonical string `json:"canonical" yaml:"canonical"`
	Remote    string `json:"remote" yaml:"remote"`
	// Missing lists canonical topics absent remotely (topics only)
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Update converts the diff into the write that resolves it
func (d FieldDiff) Update() FieldUpdate {
	if d.Field == FieldTopics {
		return FieldUpdate{Field: d.Field, AddTopics: d.Missing}
	}
	return FieldUpdate{Field: d.Field, Value: d.Canonical}
}

// DiffResult maps each drifted field to its values. Never persisted.
type DiffResult map[Field]FieldDiff

// Empty reports whether nothing drifted
func (d DiffResult) Empty() bool {
	return len(d) == 0
}

// Entries returns the diffs in report order
func (d DiffResult) Entries() []FieldDiff {
	out := make([]FieldDiff, 0, len(d))
	for _, f := range ReconcilableFields {
		if e, ok := d[f]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Fields returns the drifted fields in report order
func (d DiffResult) Fields() []Field {
	out := make([]Field, 0, len(d))
	for _, e := range d.Entries() {
		out = append(out, e.Field)
	}
	return out
}

// ApplyStatus is the outcome of applying a single field
type ApplyStatus string

const (
	StatusApplied ApplyStatus = "applied"
	StatusFailed  ApplyStatus = "failed"
	StatusSkipped ApplyStatus = "skipped"
)

// FieldResult records what happened to one field during apply
type FieldResult struct {
	Field    Field       `json:"field" yaml:"field"`
	Status   ApplyStatus `json:"status" yaml:"status"`
	Reason   string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	Attempts int         `json:"attempts" yaml:"attempts"`
	Err      error       `json:"-" yaml:"-"`
}

// ApplyReport holds one result per managed field
type ApplyReport struct {
	Results []FieldResult `json:"results" yaml:"results"`
}

// Result returns the entry for field, if any
func (r *ApplyReport) Result(field Field) (FieldResult, bool) {
	if r == nil {
		return FieldResult{}, false
	}
	for _, res := range r.Results {
		if res.Field == field {
			return res, true
		}
	}
	return FieldResult{}, false
}

// Applied returns the fields that were written successfully
func (r *ApplyReport) Applied() []Field {
	return r.withStatus(StatusApplied)
}

// Failed returns the fields whose write failed
func (r *ApplyReport) Failed() []Field {
	return r.withStatus(StatusFailed)
}

func (r *ApplyReport) withStatus(status ApplyStatus) []Field {
	if r == nil {
		return nil
	}
	var out []Field
	for _, res := range r.Results {
		if res.Status == status {
			out = append(out, res.Field)
		}
	}
	return out
}

// VerifyStatus is the post-apply state of a field
type VerifyStatus string

const (
	VerifyConverged VerifyStatus = "converged"
	VerifyDiverging VerifyStatus = "diverging"
)

// FieldVerification records the post-apply state of one field
type FieldVerification struct {
	Field  Field        `json:"field" yaml:"field"`
	Status VerifyStatus `json:"status" yaml:"status"`
	Reason string       `json:"reason,omitempty" yaml:"reason,omitempty"`
	Diff   *FieldDiff   `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// VerifyReport is the result of re-diffing after apply
type VerifyReport struct {
	Fields  []FieldVerification `json:"fields" yaml:"fields"`
	Polls   int                 `json:"polls" yaml:"polls"`
	Elapsed time.Duration       `json:"elapsed" yaml:"elapsed"`
}

// Diverging returns the fields that still differ from canonical
func (v *VerifyReport) Diverging() []Field {
	if v == nil {
		return nil
	}
	var out []Field
	for _, f := range v.Fields {
		if f.Status == VerifyDiverging {
			out = append(out, f.Field)
		}
	}
	return out
}

// Converged reports whether every verified field matches canonical
func (v *VerifyReport) Converged() bool {
	return len(v.Diverging()) == 0
}

// RunResult is the complete record of a reconcile run
type RunResult struct {
	Identifier       string             `json:"identifier" yaml:"identifier"`
	Platform         string             `json:"platform" yaml:"platform"`
	DryRun           bool               `json:"dryRun" yaml:"dryRun"`
	DescriptorSHA256 string             `json:"descriptorSha256,omitempty" yaml:"descriptorSha256,omitempty"`
	Canonical        *CanonicalMetadata `json:"canonical" yaml:"canonical"`
	Remote           *RemoteMetadata    `json:"remote" yaml:"remote"`
	Diff             DiffResult         `json:"diff" yaml:"diff"`
	Apply            *ApplyReport       `json:"apply,omitempty" yaml:"apply,omitempty"`
	Verify           *VerifyReport      `json:"verify,omitempty" yaml:"verify,omitempty"`
	VerifyError      string             `json:"verifyError,omitempty" yaml:"verifyError,omitempty"`
	Warnings         []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	StartedAt        time.Time          `json:"startedAt" yaml:"startedAt"`
	FinishedAt       time.Time          `json:"finishedAt" yaml:"finishedAt"`
}

// Exit codes of a reconcile run
const (
	ExitSuccess = 0
	ExitPartial = 1
	ExitFatal   = 2
)

// ExitCode reflects the worst per-field outcome of the run
func (r *RunResult) ExitCode() int {
	if r == nil || r.FatalError() != nil {
		return ExitFatal
	}
	if len(r.Apply.Failed()) > 0 || len(r.Verify.Diverging()) > 0 || r.VerifyError != "" {
		return ExitPartial
	}
	return ExitSuccess
}

// FatalError returns the first apply failure that no retry or later run
// can fix without intervention: bad credentials or a vanished repository
func (r *RunResult) FatalError() error {
	if r == nil || r.Apply == nil {
		return nil
	}
	for _, res := range r.Apply.Results {
		if IsErrorType(res.Err, ErrRemoteUnauthorized) || IsErrorType(res.Err, ErrRemoteNotFound) {
			return res.Err
		}
	}
	return nil
}

// Summary returns a one-line human readable summary
func (r *RunResult) Summary() string {
	if r.Diff.Empty() {
		return "No drift detected"
	}
	summary := pluralize(len(r.Diff), "field") + " drifted"
	if r.Apply != nil {
		summary += ", " + pluralize(len(r.Apply.Applied()), "field") + " applied"
		if failed := len(r.Apply.Failed()); failed > 0 {
			summary += ", " + pluralize(failed, "field") + " failed"
		}
	}
	if r.Verify != nil {
		if diverging := len(r.Verify.Diverging()); diverging > 0 {
			summary += ", " + pluralize(diverging, "field") + " still diverging"
		} else {
			summary += ", all converged"
		}
	}
	if r.DryRun {
		summary += " (dry run)"
	}
	return summary
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
