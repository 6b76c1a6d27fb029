package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameLen = 120

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces an uploaded file name to a single safe path
// segment. Separators and control characters become underscores and long
// names are cut, keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errInvalidFileName
	}
	if runes := []rune(s); len(runes) > maxFileNameLen {
		ext := ""
		if i := strings.LastIndexByte(s, '.'); i > 0 && len(s)-i <= 10 {
			ext = s[i:]
		}
		keep := maxFileNameLen - len([]rune(ext))
		s = string([]rune(strings.TrimSuffix(s, ext))[:keep]) + ext
	}
	return s, nil
}
