package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidSeasonCode = errors.New("invalid season code")
	ErrValidation        = errors.New("validation failed")
)
