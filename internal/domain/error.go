package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Subscription lifecycle
	ErrActivePlanExists = errors.New("user already has an active plan")
	ErrGrantLocked      = errors.New("subscription grant in progress for this user")

	// Wallet
	ErrInsufficientCoins = errors.New("insufficient coins")
)
