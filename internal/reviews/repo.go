package reviews

import "context"

// Repo defines persistence operations for reviews.
type Repo interface {
	Create(ctx context.Context, review Review) error
	GetByID(ctx context.Context, reviewID string) (Review, error)
	// Finish stores the terminal status, result, payload key and error.
	Finish(ctx context.Context, review Review) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Review, error)
	LatestByUser(ctx context.Context, userID string) (Review, error)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
