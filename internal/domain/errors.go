package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateJob          = errors.New("duplicate job")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrAlreadyPolling        = errors.New("already polling")
	ErrUploadFailed          = errors.New("upload failed")
	ErrSecondaryUploadFailed = errors.New("secondary upload failed")
	ErrSubmissionRejected    = errors.New("submission rejected")
	ErrNoJobID               = errors.New("no job id in response")
)

// DuplicateJobError is returned when appending a job whose id is already stored.
type DuplicateJobError struct {
	ID string
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("job %q already exists", e.ID)
}

func (e *DuplicateJobError) Unwrap() error { return ErrDuplicateJob }

// JobNotFoundError is returned when a job id is unknown to the store.
type JobNotFoundError struct {
	ID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job %q not found", e.ID)
}

func (e *JobNotFoundError) Unwrap() error { return ErrNotFound }

// InvalidTransitionError is returned when an update would break the job lifecycle.
type InvalidTransitionError struct {
	ID     string
	From   Status
	To     Status
	Detail string
}

func (e *InvalidTransitionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("job %q: invalid transition %s -> %s: %s", e.ID, e.From, e.To, e.Detail)
	}
	return fmt.Sprintf("job %q: invalid transition %s -> %s", e.ID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// SubmissionRejectedError carries the upstream reason a submission was refused.
type SubmissionRejectedError struct {
	Reason string
	Err    error
}

func (e *SubmissionRejectedError) Error() string {
	return fmt.Sprintf("submission rejected: %s", e.Reason)
}

func (e *SubmissionRejectedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubmissionRejected}
	}
	return []error{ErrSubmissionRejected, e.Err}
}
