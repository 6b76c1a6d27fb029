package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-reviewer/internal/shared/telemetry"
	"resume-reviewer/internal/upstream"
)

const defaultTTL = 60 * time.Minute

var ErrMissingCredentials = errors.New("username and password are required")

// Authenticator exchanges credentials for a review service token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (upstream.Token, error)
}

type Service struct {
	Repo     Repo
	Upstream Authenticator
	// TTL bounds every session regardless of what the upstream token says.
	TTL time.Duration
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultTTL
}

// Login authenticates against the review service and opens a session
// holding the returned token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}

	tok, err := s.Upstream.Login(ctx, username, password)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	expires := now.Add(s.ttl())
	if !tok.Expiry.IsZero() && tok.Expiry.Before(expires) {
		expires = tok.Expiry.UTC()
	}
	session := Session{
		ID:        uuid.NewString(),
		Username:  username,
		Token:     tok.AccessToken,
		ExpiresAt: expires,
		CreatedAt: now,
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, err
	}

	telemetry.Info("session.created", map[string]any{
		"session_id": session.ID,
		"user_id":    session.Username,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	})
	return session, nil
}

// Current returns the live session for id. An expired session is removed
// and reported as ErrExpired.
func (s *Service) Current(ctx context.Context, id string) (Session, error) {
	if strings.TrimSpace(id) == "" {
		return Session{}, ErrNotFound
	}
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if session.Expired(s.now()) {
		if err := s.Repo.Delete(ctx, id); err != nil {
			telemetry.Error("session.delete.failed", map[string]any{"session_id": id, "error": err.Error()})
		}
		return Session{}, ErrExpired
	}
	return session, nil
}

// Logout ends the session. Unknown ids are not an error.
func (s *Service) Logout(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return s.Repo.Delete(ctx, id)
}

// Sweep deletes every expired session.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpired(ctx, s.now())
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				telemetry.Error("session.sweep.failed", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				telemetry.Info("session.sweep", map[string]any{"removed": n})
			}
		}
	}
}
