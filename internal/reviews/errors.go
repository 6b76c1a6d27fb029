package reviews

import "errors"

var (
	ErrNotFound       = errors.New("review not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotPDF         = errors.New("not a pdf")
	ErrTooLarge       = errors.New("file too large")
	ErrNoSession      = errors.New("authentication token not found")
	ErrSessionExpired = errors.New("session expired")
	ErrInvalidFormat  = errors.New("invalid review data format")
)

// User facing messages, worded as the web client shows them.
const (
	MsgSelectFile     = "Please select a file to upload"
	MsgNotPDF         = "Please upload a PDF file"
	MsgTooLarge       = "PDF must be 10MB or smaller"
	MsgNoToken        = "Authentication token not found"
	MsgSessionExpired = "Session expired, please sign in again"
	MsgUploadFailed   = "Resume upload failed"
	MsgReviewFailed   = "Resume review failed"
	MsgInvalidFormat  = "Invalid review data format"
	MsgUnexpected     = "An error occurred during the review process"
)

var (
	ErrUploadFailed = errors.New("resume upload failed")
	ErrReviewFailed = errors.New("resume review failed")
)
