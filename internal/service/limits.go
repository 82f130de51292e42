package service

import "errors"

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
	MaxContentBytes  = 1 << 20 // 1 MiB
)

// ErrValidation marks a malformed submission request. No state is changed.
var ErrValidation = errors.New("invalid analysis data")

// ClampLimit applies the list defaults used by every recent-N query.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
