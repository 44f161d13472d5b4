package types

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidOption    = goerr.New("invalid option")
	ErrValidationFailed = goerr.New("validation failed")
	ErrNotFound         = goerr.New("not found")

	// Adapter boundary errors. Every failure crossing an adapter boundary is
	// wrapped with one of these so the lifecycle manager can decide the
	// terminal job state without inspecting tool-specific error text.
	ErrAdapterStart    = goerr.New("adapter start failure")
	ErrAdapterTimeout  = goerr.New("adapter deadline exceeded")
	ErrAdapterProtocol = goerr.New("adapter protocol error")

	// ErrNormalization marks raw output that could not be parsed. The job is
	// still completed with zero findings and the raw output preserved.
	ErrNormalization = goerr.New("normalization failure")

	// ErrScheduleConflict is returned when a dispatch targets a (tool, target)
	// pair that already has a running job. The request is rejected, not
	// queued, and is retryable by the caller.
	ErrScheduleConflict = goerr.New("scan already running for tool and target")
)
