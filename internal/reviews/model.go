package reviews

import (
	"time"

	"resume-reviewer/internal/feedback"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Review is one resume submitted for review and its outcome.
type Review struct {
	ID           string
	UserID       string
	FileName     string
	SizeBytes    int64
	PageCount    int
	StorageKey   string
	PayloadKey   string
	Status       string
	Result       *feedback.Result
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// Terminal reports whether the review has finished, successfully or not.
func (r Review) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
