package domain

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateName  = errors.New("player name already exists")
	ErrPlayerNotFound = errors.New("player not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrAggregation    = errors.New("aggregation failed")
)
