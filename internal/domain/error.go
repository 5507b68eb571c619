package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNoContent          = errors.New("document has no content or reference")
	ErrContentUnavailable = errors.New("document content unavailable")
	ErrEngineUnavailable  = errors.New("analysis engine unavailable")
	ErrQueueEmpty         = errors.New("no messages available")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
