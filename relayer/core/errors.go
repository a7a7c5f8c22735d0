package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrConnectivity is returned when a chain node can not be reached or does not answer in time
	ErrConnectivity = errors.New("chain connectivity error")
	// ErrQuery is returned when a chain node answers with an error or malformed data
	ErrQuery = errors.New("chain query error")
	// ErrServiceUnavailable is returned when the compliance service can not give an answer
	ErrServiceUnavailable = errors.New("compliance service unavailable")
	// ErrSubmission is returned when a destination call could not be submitted
	ErrSubmission = errors.New("submission error")
	// ErrNonceAlreadyProcessed is returned when a nonce is added to the processed set twice
	ErrNonceAlreadyProcessed = errors.New("nonce already processed")
	// ErrFatal marks errors after which a relayer must not continue
	ErrFatal = errors.New("fatal relayer error")
	// ErrPairNotFound is returned for a pair id that is not configured
	ErrPairNotFound = errors.New("pair not found")
)

func NewConnectivityError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrConnectivity, err)
}

func NewQueryError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrQuery, err)
}

func NewServiceUnavailableError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
}

func NewSubmissionError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrSubmission, err)
}

func NewFatalError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrFatal, err)
}

// IsRetriableError reports whether the failed operation should be retried on a later tick
func IsRetriableError(err error) bool {
	return errors.Is(err, ErrConnectivity) ||
		errors.Is(err, ErrQuery) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

func IsFatalError(err error) bool {
	return errors.Is(err, ErrFatal)
}
