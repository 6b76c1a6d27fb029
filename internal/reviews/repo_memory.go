package reviews

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	reviews map[string]Review
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{reviews: make(map[string]Review)}
}

func (r *MemoryRepo) Create(ctx context.Context, review Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[review.ID] = review
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, reviewID string) (Review, error) {
	if err := ctx.Err(); err != nil {
		return Review{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.reviews[reviewID]
	if !ok {
		return Review{}, ErrNotFound
	}
	return review, nil
}

func (r *MemoryRepo) Finish(ctx context.Context, review Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.reviews[review.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = review.Status
	existing.Result = review.Result
	existing.PayloadKey = review.PayloadKey
	existing.ErrorMessage = review.ErrorMessage
	existing.CompletedAt = review.CompletedAt
	r.reviews[review.ID] = existing
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	all := r.sortedForUser(userID)
	if offset >= len(all) {
		return []Review{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MemoryRepo) LatestByUser(ctx context.Context, userID string) (Review, error) {
	if err := ctx.Err(); err != nil {
		return Review{}, err
	}
	all := r.sortedForUser(userID)
	if len(all) == 0 {
		return Review{}, ErrNotFound
	}
	return all[0], nil
}

// sortedForUser returns the user's reviews newest first.
func (r *MemoryRepo) sortedForUser(userID string) []Review {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Review, 0)
	for _, review := range r.reviews {
		if review.UserID == userID {
			out = append(out, review)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

var _ Repo = (*MemoryRepo)(nil)
