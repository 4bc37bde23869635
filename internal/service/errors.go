package service

import (
	"fmt"
)

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id string) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %s not found", id)}
}

type ErrInvalidLimit struct {
	error
}

func NewErrInvalidLimit(field string, value int) *ErrInvalidLimit {
	return &ErrInvalidLimit{fmt.Errorf("%s must not be negative, got %d", field, value)}
}

type ErrInvalidPattern struct {
	error
}

func NewErrInvalidPattern(pattern string, err error) *ErrInvalidPattern {
	return &ErrInvalidPattern{fmt.Errorf("invalid file pattern %q: %w", pattern, err)}
}
