package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientCopies = errors.New("insufficient copies")
	ErrDeckFull           = errors.New("deck full")
	ErrSeasonOpen         = errors.New("season still open")
	ErrOutOfRange         = errors.New("amount out of range")
	ErrDuplicateGrant     = errors.New("duplicate grant")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrNotSkillCard       = errors.New("card is not a skill card")

	// ErrPersistenceUnavailable wraps transient storage failures that survived
	// the retry budget. Callers may retry the whole operation; idempotency
	// keys make that safe.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrInvariantViolation indicates corrupted state (negative balance,
	// duplicate deck slot). It is a bug, not a user error.
	ErrInvariantViolation = errors.New("invariant violation")
)
