package service

import (
	"errors"
	"fmt"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrFutureDate        = errors.New("date is in the future")
	ErrPageBelowPrevious = errors.New("page is below an earlier entry")
	ErrPageAboveNext     = errors.New("page is above a later entry")
)

// BoundError reports a rejected page together with the nearest allowed value.
type BoundError struct {
	Err   error
	Limit int
}

func (e *BoundError) Error() string {
	return fmt.Sprintf("%v (limit %d)", e.Err, e.Limit)
}

func (e *BoundError) Unwrap() error {
	return e.Err
}
