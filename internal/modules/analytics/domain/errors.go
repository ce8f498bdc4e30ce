package domain

import "errors"

var (
	ErrUnknownTenant    = errors.New("unknown business")
	ErrInvalidEventKind = errors.New("invalid event kind")
	ErrStorageFailure   = errors.New("analytics storage unavailable")
	ErrInvalidPeriod    = errors.New("period days must not be negative")
	ErrInvalidAmount    = errors.New("revenue amount must not be negative")
)
