package services

import "errors"

var (
	// ErrNotFound covers both "no such record" and "record belongs to another
	// organization" so that cross-tenant probing cannot distinguish the two.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRuleName is returned when a rule name collides within an
	// organization on create or rename.
	ErrDuplicateRuleName = errors.New("rule name already in use")
)
