package domain

import (
	"errors"
	"fmt"
	"time"
)

// ReferenceNotFoundError indicates that a tag or ref does not exist in the
// repository. Terminal: reference existence is not a transient condition.
type ReferenceNotFoundError struct {
	Repo RepositoryRef
	Ref  string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("reference %q not found in %s", e.Ref, e.Repo.FullName())
}

// AuthorizationError indicates the credential lacks read access. Terminal.
type AuthorizationError struct {
	Repo RepositoryRef
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to read %s", e.Repo.FullName())
}

// RangeResolutionError indicates the two commits share no common ancestry
// and cannot be compared. Terminal.
type RangeResolutionError struct {
	Repo RepositoryRef
	Base string
	Head string
}

func (e *RangeResolutionError) Error() string {
	return fmt.Sprintf(
		"cannot compare %s and %s in %s: no common ancestry",
		e.Base, e.Head, e.Repo.FullName(),
	)
}

// RateLimitExceededError indicates the retry budget was exhausted while the
// hosting API kept signaling rate limiting. Terminal.
type RateLimitExceededError struct {
	Attempts int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit still active after %d attempts", e.Attempts)
}

// PayloadTooLargeError indicates the payload exceeds the budget even with
// all patch excerpts reduced to nothing. Recoverable by narrowing the
// commit limit.
type PayloadTooLargeError struct {
	Size   int
	Budget int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf(
		"payload of %d characters exceeds budget of %d even without patch excerpts; reduce the commit limit",
		e.Size, e.Budget,
	)
}

// SummarizationFailedError wraps a failure of the external summarization
// service. Terminal at that boundary, surfaced as-is.
type SummarizationFailedError struct {
	Service string
	Err     error
}

func (e *SummarizationFailedError) Error() string {
	return fmt.Sprintf("summarization via %s failed: %v", e.Service, e.Err)
}

func (e *SummarizationFailedError) Unwrap() error { return e.Err }

// RateLimitedError marks a single rate-limited response. Retryable; ResetAt
// carries the server-announced quota reset when known.
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	if e.ResetAt.IsZero() {
		return "rate limited by the hosting API"
	}
	return fmt.Sprintf("rate limited by the hosting API until %s", e.ResetAt.Format(time.RFC3339))
}

// TransientError marks a condition worth retrying: timeouts, connection
// resets, 5xx responses.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient API failure (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient API failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsRetryable reports whether the error is a transient condition that a
// bounded backoff loop may retry. Everything else propagates immediately.
func IsRetryable(err error) bool {
	var rl *RateLimitedError
	var tr *TransientError
	return errors.As(err, &rl) || errors.As(err, &tr)
}
