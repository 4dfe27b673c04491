package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewReference returns a human-facing reference such as "APP-3F9A1C0B".
func NewReference(prefix string) string {
	return prefix + "-" + strings.ToUpper(NewID32()[:8])
}
