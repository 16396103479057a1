// Package jobs runs asynchronous document translations off the request path
// and tracks every job through a monotone state machine.
package jobs

import (
	"time"

	"github.com/valpere/tarjim/internal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition enforces pending -> processing -> {completed | failed}.
// A pending job may fail directly when it cannot be started.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

type Result struct {
	Direction           internal.Direction `json:"direction"`
	OriginalLines       []string           `json:"original_lines"`
	TranslatedLines     []string           `json:"translated_lines"`
	WordCountOriginal   int                `json:"word_count_original"`
	WordCountTranslated int                `json:"word_count_translated"`
	OutputFile          string             `json:"output_file"`
}

// Job is one document translation. Result is set only when completed and
// Error only when failed.
type Job struct {
	ID        string             `json:"id"`
	Status    Status             `json:"status"`
	InputPath string             `json:"input_path"`
	InputName string             `json:"input_name"`
	Direction internal.Direction `json:"direction"`
	Result    *Result            `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Clone returns a deep copy so that stores never share slices with callers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.Result != nil {
		r := *j.Result
		r.OriginalLines = append([]string(nil), j.Result.OriginalLines...)
		r.TranslatedLines = append([]string(nil), j.Result.TranslatedLines...)
		c.Result = &r
	}
	return &c
}
