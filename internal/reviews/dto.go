package reviews

import (
	"time"

	"resume-reviewer/internal/feedback"
)

// ReviewResponse is the API representation of a review.
type ReviewResponse struct {
	ID          string           `json:"id"`
	FileName    string           `json:"fileName"`
	SizeBytes   int64            `json:"sizeBytes"`
	PageCount   int              `json:"pageCount"`
	Status      string           `json:"status"`
	Result      *feedback.Result `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// ListResponse is a page of reviews.
type ListResponse struct {
	Items  []ReviewResponse `json:"items"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func toResponse(r Review) ReviewResponse {
	return ReviewResponse{
		ID:          r.ID,
		FileName:    r.FileName,
		SizeBytes:   r.SizeBytes,
		PageCount:   r.PageCount,
		Status:      r.Status,
		Result:      r.Result,
		Error:       r.ErrorMessage,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
}
