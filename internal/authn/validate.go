package authn

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLen = 8
	specialChars   = "!@#$%^&*"
)

const (
	msgWeakPassword     = "Password must be at least 8 characters long, contain one uppercase letter, and one special character."
	msgPasswordMismatch = "Passwords do not match!"
	msgInvalidEmail     = "A valid email is required."
	msgMissingName      = "First or last name is required."
)

// validPassword requires eight characters, an ASCII uppercase letter and
// one of !@#$%^&*.
func validPassword(pw string) bool {
	if strings.ContainsAny(pw, "\r\n") || utf8.RuneCountInString(pw) < minPasswordLen {
		return false
	}
	hasUpper := strings.IndexFunc(pw, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
	return hasUpper && strings.ContainsAny(pw, specialChars)
}

// problem returns the first reason the request is unacceptable, or "".
func (r signupRequest) problem() string {
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return msgInvalidEmail
	}
	if strings.TrimSpace(r.FirstName) == "" && strings.TrimSpace(r.LastName) == "" {
		return msgMissingName
	}
	if !validPassword(r.Password) {
		return msgWeakPassword
	}
	if r.Password != r.RetypePassword {
		return msgPasswordMismatch
	}
	return ""
}

// userName joins first and last name the way the review service expects.
func (r signupRequest) userName() string {
	return strings.TrimSpace(r.FirstName) + strings.TrimSpace(r.LastName)
}
