package domain

import "errors"

var (
	ErrAccountNotFound     = errors.New("credit account not found")
	ErrMissingAccountID    = errors.New("account id is required")
	ErrVersionConflict     = errors.New("credit account version conflict")
	ErrUnknownRole         = errors.New("unknown role")
	ErrUnknownTier         = errors.New("unknown subscription tier")
	ErrUnknownProfileType  = errors.New("unknown profile type")
	ErrUnknownAction       = errors.New("unknown action")
	ErrInvalidCreditAmount = errors.New("credit amount must be positive")
)
