package services

import (
	"strings"

	"github.com/google/uuid"
)

func shortID(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// NewToken returns an opaque access token for vendor-facing assessment links.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
