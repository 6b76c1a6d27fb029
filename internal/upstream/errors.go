package upstream

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

var (
	ErrNoToken       = errors.New("no token received from the server")
	ErrLoginFailed   = errors.New("login failed")
	ErrSignupFailed  = errors.New("signup failed")
	ErrUploadFailed  = errors.New("resume upload failed")
	ErrReviewFailed  = errors.New("resume review failed")
	ErrUnauthorized  = errors.New("upstream rejected token")
	errEmptyDocument = errors.New("empty document")
)

// StatusError is a non-2xx answer from the review service.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("upstream %s: status %d: %s", e.Op, e.Status, e.Message)
}

// Unwrap maps the failure to the sentinel of its operation, or to
// ErrUnauthorized when the service refused the bearer token.
func (e *StatusError) Unwrap() []error {
	errs := []error{opError(e.Op)}
	if e.Status == 401 && (e.Op == opUpload || e.Op == opReview) {
		errs = append(errs, ErrUnauthorized)
	}
	return errs
}

const (
	opLogin  = "login"
	opSignup = "signup"
	opUpload = "upload"
	opReview = "review"
)

func opError(op string) error {
	switch op {
	case opLogin:
		return ErrLoginFailed
	case opSignup:
		return ErrSignupFailed
	case opUpload:
		return ErrUploadFailed
	default:
		return ErrReviewFailed
	}
}

// messageFrom pulls a human readable reason out of an error body. The
// service answers with {"message": ...} or {"detail": ...}.
func messageFrom(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(truncate(string(body), 200))
	}
	for _, path := range []string{"message", "detail", "error", "detail.0.msg"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return strings.TrimSpace(v.Str)
		}
	}
	return ""
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
