package reviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"resume-reviewer/internal/feedback"
)

type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, user_id, file_name, size_bytes, page_count, storage_key, payload_key,
       status, result, error_message, created_at, completed_at
FROM reviews`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new review.
func (r *PGRepo) Create(ctx context.Context, review Review) error {
	const query = `
INSERT INTO reviews (id, user_id, file_name, size_bytes, page_count, storage_key, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		review.ID,
		review.UserID,
		review.FileName,
		review.SizeBytes,
		review.PageCount,
		review.StorageKey,
		review.Status,
		review.CreatedAt,
	)
	return err
}

// GetByID returns a review by ID.
func (r *PGRepo) GetByID(ctx context.Context, reviewID string) (Review, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1
LIMIT 1`, reviewID)
	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return review, nil
}

// Finish records the outcome of a review.
func (r *PGRepo) Finish(ctx context.Context, review Review) error {
	var result any
	if review.Result != nil {
		data, err := json.Marshal(review.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		result = data
	}
	const query = `
UPDATE reviews
SET status = $2, result = $3, payload_key = $4, error_message = $5, completed_at = $6
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		review.ID,
		review.Status,
		result,
		nullableString(review.PayloadKey),
		nullableString(review.ErrorMessage),
		review.CompletedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser lists reviews for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Review, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, review)
	}
	return out, rows.Err()
}

// LatestByUser returns the user's most recent review.
func (r *PGRepo) LatestByUser(ctx context.Context, userID string) (Review, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`, userID)
	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return review, nil
}

func scanReview(row rowScanner) (Review, error) {
	var review Review
	var payloadKey sql.NullString
	var result []byte
	var errorMessage sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.FileName,
		&review.SizeBytes,
		&review.PageCount,
		&review.StorageKey,
		&payloadKey,
		&review.Status,
		&result,
		&errorMessage,
		&review.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return Review{}, err
	}
	if payloadKey.Valid {
		review.PayloadKey = payloadKey.String
	}
	if len(result) > 0 {
		var parsed feedback.Result
		if err := json.Unmarshal(result, &parsed); err == nil {
			review.Result = &parsed
		}
	}
	if errorMessage.Valid {
		review.ErrorMessage = errorMessage.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		review.CompletedAt = &t
	}
	return review, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
