package object

import (
	"context"
	"errors"
	"io"
	"path"

	"resume-reviewer/internal/shared/util"
)

var (
	// ErrInvalidKey is returned for keys that would escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
	ErrNotFound   = errors.New("object not found")
)

// Store saves and retrieves the uploaded resumes and raw review payloads.
type Store interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ResumeKey is the storage key of the PDF submitted for a review.
func ResumeKey(userID, reviewID, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(util.HashUserKey(userID), reviewID, "resume_"+name), nil
}

// PayloadKey is the storage key of the raw review service response.
func PayloadKey(userID, reviewID string) string {
	return path.Join(util.HashUserKey(userID), reviewID, "review.json")
}
