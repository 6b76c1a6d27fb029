package reviews

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-reviewer/internal/extract"
	"resume-reviewer/internal/feedback"
	"resume-reviewer/internal/queue"
	"resume-reviewer/internal/sessions"
	"resume-reviewer/internal/shared/metrics"
	"resume-reviewer/internal/shared/storage/object"
	"resume-reviewer/internal/shared/telemetry"
	"resume-reviewer/internal/upstream"
)

// DefaultMaxBytes caps the size of a submitted resume.
const DefaultMaxBytes int64 = 10 << 20

const (
	stageUpload = "upload"
	stageReview = "review"
	stageParse  = "parse"
)

// outcomeTimeout bounds recording a review outcome once the request is gone.
const outcomeTimeout = 10 * time.Second

// SessionSource resolves the upstream token held by a session.
type SessionSource interface {
	Current(ctx context.Context, id string) (sessions.Session, error)
	Logout(ctx context.Context, id string) error
}

// Reviewer is the remote resume review service.
type Reviewer interface {
	UploadResume(ctx context.Context, token, fileName string, data []byte) error
	ReviewResume(ctx context.Context, token, fileName string, data []byte) ([]byte, error)
}

type Service struct {
	Repo     Repo
	Store    object.Store
	Sessions SessionSource
	Upstream Reviewer
	Events   queue.Client
	MaxBytes int64
	Now      func() time.Time
}

// SubmitInput is one resume upload.
type SubmitInput struct {
	UserID      string
	SessionID   string
	RequestID   string
	FileName    string
	ContentType string
	Body        io.Reader
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxBytes
}

// Submit validates the PDF, stores it, uploads it to the review service,
// requests the review and records the normalized result. Upstream and
// parse failures still return the failed review alongside the error.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Review, error) {
	data, info, err := s.validate(ctx, in)
	if err != nil {
		return Review{}, err
	}

	session, err := s.Sessions.Current(ctx, in.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrExpired):
			return Review{}, ErrSessionExpired
		case errors.Is(err, sessions.ErrNotFound):
			return Review{}, ErrNoSession
		default:
			return Review{}, err
		}
	}

	reviewID := uuid.NewString()
	storageKey, err := object.ResumeKey(in.UserID, reviewID, in.FileName)
	if err != nil {
		return Review{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.Store.Put(ctx, storageKey, "application/pdf", bytes.NewReader(data)); err != nil {
		return Review{}, fmt.Errorf("store resume: %w", err)
	}

	started := s.now()
	review := Review{
		ID:         reviewID,
		UserID:     in.UserID,
		FileName:   filepath.Base(in.FileName),
		SizeBytes:  int64(len(data)),
		PageCount:  info.Pages,
		StorageKey: storageKey,
		Status:     StatusProcessing,
		CreatedAt:  started,
	}
	if err := s.Repo.Create(ctx, review); err != nil {
		return Review{}, err
	}
	metrics.IncReviewStarted()
	telemetry.Info("review.started", map[string]any{
		"review_id":  review.ID,
		"user_id":    review.UserID,
		"request_id": in.RequestID,
		"pages":      info.Pages,
		"words":      info.Words(),
		"size_bytes": review.SizeBytes,
	})

	if err := s.Upstream.UploadResume(ctx, session.Token, review.FileName, data); err != nil {
		return s.fail(ctx, review, in, stageUpload, MsgUploadFailed, ErrUploadFailed, err)
	}

	raw, err := s.Upstream.ReviewResume(ctx, session.Token, review.FileName, data)
	if err != nil {
		return s.fail(ctx, review, in, stageReview, MsgReviewFailed, ErrReviewFailed, err)
	}

	// The caller may hang up during the slow upstream calls; the outcome is
	// still recorded.
	ctx, cancel := detached(ctx)
	defer cancel()

	payloadKey := object.PayloadKey(in.UserID, review.ID)
	if _, err := s.Store.Put(ctx, payloadKey, "application/json", bytes.NewReader(raw)); err != nil {
		telemetry.Warn("review.payload.store_failed", map[string]any{
			"review_id": review.ID,
			"error":     err.Error(),
		})
	} else {
		review.PayloadKey = payloadKey
	}

	result := feedback.ParseJSON(raw)
	if result.IsEmpty() {
		return s.fail(ctx, review, in, stageParse, MsgInvalidFormat, ErrInvalidFormat, nil)
	}

	completed := s.now()
	review.Status = StatusCompleted
	review.Result = &result
	review.CompletedAt = &completed
	if err := s.Repo.Finish(ctx, review); err != nil {
		return Review{}, err
	}

	metrics.IncReviewCompleted()
	metrics.ObserveReviewDurationMs(float64(completed.Sub(started).Milliseconds()))
	if score, ok := result.Score.Int(); ok {
		metrics.ObserveReviewScore(score)
	}
	telemetry.Info("review.completed", map[string]any{
		"review_id":   review.ID,
		"user_id":     review.UserID,
		"request_id":  in.RequestID,
		"score":       result.Score.String(),
		"duration_ms": completed.Sub(started).Milliseconds(),
	})
	s.publish(ctx, review, in.RequestID)
	return review, nil
}

// Get returns a review owned by userID. Reviews of other users are reported
// as not found.
func (s *Service) Get(ctx context.Context, userID, reviewID string) (Review, error) {
	if strings.TrimSpace(reviewID) == "" {
		return Review{}, ErrNotFound
	}
	review, err := s.Repo.GetByID(ctx, reviewID)
	if err != nil {
		return Review{}, err
	}
	if review.UserID != userID {
		return Review{}, ErrNotFound
	}
	return review, nil
}

// List returns the user's reviews newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Review, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Latest returns the user's most recent review.
func (s *Service) Latest(ctx context.Context, userID string) (Review, error) {
	return s.Repo.LatestByUser(ctx, userID)
}

// Payload opens the raw review service response stored for a review.
func (s *Service) Payload(ctx context.Context, userID, reviewID string) (io.ReadCloser, error) {
	review, err := s.Get(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.PayloadKey == "" {
		return nil, ErrNotFound
	}
	rc, err := s.Store.Open(ctx, review.PayloadKey)
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rc, err
}

func (s *Service) validate(ctx context.Context, in SubmitInput) ([]byte, extract.Info, error) {
	if in.Body == nil || strings.TrimSpace(in.FileName) == "" {
		return nil, extract.Info{}, fmt.Errorf("%w: %s", ErrInvalidInput, MsgSelectFile)
	}
	if !strings.EqualFold(filepath.Ext(in.FileName), ".pdf") {
		return nil, extract.Info{}, ErrNotPDF
	}
	if ct := contentTypeBase(in.ContentType); ct != "" && ct != "application/pdf" {
		return nil, extract.Info{}, ErrNotPDF
	}

	limit := s.maxBytes()
	data, err := io.ReadAll(io.LimitReader(in.Body, limit+1))
	if err != nil {
		return nil, extract.Info{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, extract.Info{}, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, extract.Info{}, fmt.Errorf("%w: %s", ErrInvalidInput, MsgSelectFile)
	}

	info, err := extract.InspectPDF(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, extract.Info{}, ctx.Err()
		}
		return nil, extract.Info{}, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return data, info, nil
}

// fail marks the review failed and returns it with sentinel joined to cause.
// A rejected upstream token also ends the local session.
func (s *Service) fail(ctx context.Context, review Review, in SubmitInput, stage, message string, sentinel, cause error) (Review, error) {
	ctx, cancel := detached(ctx)
	defer cancel()

	completed := s.now()
	review.Status = StatusFailed
	review.ErrorMessage = message
	review.CompletedAt = &completed

	if err := s.Repo.Finish(ctx, review); err != nil {
		telemetry.Error("review.finish_failed", map[string]any{
			"review_id": review.ID,
			"error":     err.Error(),
		})
	}
	metrics.IncReviewFailed(stage)

	fields := map[string]any{
		"review_id":  review.ID,
		"user_id":    review.UserID,
		"request_id": in.RequestID,
		"stage":      stage,
	}
	if cause != nil {
		metrics.IncUpstreamError(stage)
		fields["error"] = cause.Error()
	}
	telemetry.Warn("review.failed", fields)
	s.publish(ctx, review, in.RequestID)

	if errors.Is(cause, upstream.ErrUnauthorized) {
		if err := s.Sessions.Logout(ctx, in.SessionID); err != nil {
			telemetry.Error("session.logout_failed", map[string]any{"session_id": in.SessionID, "error": err.Error()})
		}
		return review, errors.Join(sentinel, ErrSessionExpired)
	}
	if cause != nil {
		return review, errors.Join(sentinel, cause)
	}
	return review, sentinel
}

// detached keeps ctx values but not its cancellation, bounded by
// outcomeTimeout.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), outcomeTimeout)
}

func (s *Service) publish(ctx context.Context, review Review, requestID string) {
	if s.Events == nil {
		return
	}
	msg := queue.Message{
		ReviewID:  review.ID,
		UserID:    review.UserID,
		RequestID: requestID,
		Status:    review.Status,
	}
	if review.CompletedAt != nil {
		msg.CompletedAt = review.CompletedAt.Format(time.RFC3339)
	}
	if review.Result != nil {
		if score, ok := review.Result.Score.Int(); ok {
			msg.Score = &score
		}
	}
	if err := s.Events.Send(ctx, msg); err != nil {
		telemetry.Warn("review.publish_failed", map[string]any{
			"review_id": review.ID,
			"error":     err.Error(),
		})
	}
}

func contentTypeBase(ct string) string {
	ct = strings.TrimSpace(ct)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	// Browsers send this for files they cannot type.
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}
