package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tagdelta/tagdelta/domain"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	t.Run("should treat rate-limited and transient errors as retryable", func(t *testing.T) {
		t.Parallel()

		// given
		rateLimited := &domain.RateLimitedError{ResetAt: time.Now().Add(time.Minute)}
		transient := &domain.TransientError{Status: 502, Err: errors.New("bad gateway")}

		// then
		assert.True(t, domain.IsRetryable(rateLimited))
		assert.True(t, domain.IsRetryable(transient))
	})

	t.Run("should see through error wrapping", func(t *testing.T) {
		t.Parallel()

		// given
		wrapped := fmt.Errorf("page 3: %w", &domain.TransientError{Err: errors.New("timeout")})

		// then
		assert.True(t, domain.IsRetryable(wrapped))
	})

	t.Run("should treat terminal errors as non-retryable", func(t *testing.T) {
		t.Parallel()

		repo := domain.RepositoryRef{Owner: "octocat", Name: "hello"}
		tests := []error{
			&domain.ReferenceNotFoundError{Repo: repo, Ref: "v9.9.9"},
			&domain.AuthorizationError{Repo: repo},
			&domain.RangeResolutionError{Repo: repo, Base: "v1", Head: "v2"},
			&domain.RateLimitExceededError{Attempts: 5},
			errors.New("malformed response"),
		}

		for _, err := range tests {
			// then
			assert.False(t, domain.IsRetryable(err), "error %v", err)
		}
	})
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	t.Run("should include repository and ref context", func(t *testing.T) {
		t.Parallel()

		// given
		repo := domain.RepositoryRef{Owner: "octocat", Name: "hello"}
		err := &domain.ReferenceNotFoundError{Repo: repo, Ref: "v2.0.0"}

		// then
		assert.Contains(t, err.Error(), "v2.0.0")
		assert.Contains(t, err.Error(), "octocat/hello")
	})

	t.Run("should suggest narrowing the commit limit when the payload overflows", func(t *testing.T) {
		t.Parallel()

		// given
		err := &domain.PayloadTooLargeError{Size: 90000, Budget: 48000}

		// then
		assert.Contains(t, err.Error(), "reduce the commit limit")
	})

	t.Run("should unwrap the summarizer failure cause", func(t *testing.T) {
		t.Parallel()

		// given
		cause := errors.New("connection refused")
		err := &domain.SummarizationFailedError{Service: "openai", Err: cause}

		// then
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "openai")
	})
}

func TestRetryPolicyBackoff(t *testing.T) {
	t.Parallel()

	t.Run("should grow exponentially from the base delay", func(t *testing.T) {
		t.Parallel()

		// given
		policy := domain.DefaultRetryPolicy()

		// then
		assert.Equal(t, time.Second, policy.Backoff(0))
		assert.Equal(t, 2*time.Second, policy.Backoff(1))
		assert.Equal(t, 4*time.Second, policy.Backoff(2))
		assert.Equal(t, 8*time.Second, policy.Backoff(3))
		assert.Equal(t, 16*time.Second, policy.Backoff(4))
	})

	t.Run("should cap at the maximum delay", func(t *testing.T) {
		t.Parallel()

		// given
		policy := domain.DefaultRetryPolicy()

		// then
		assert.Equal(t, 30*time.Second, policy.Backoff(5))
		assert.Equal(t, 30*time.Second, policy.Backoff(20))
	})

	t.Run("should honor a custom cap below the base", func(t *testing.T) {
		t.Parallel()

		// given
		policy := domain.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 500 * time.Millisecond}

		// then
		assert.Equal(t, 500*time.Millisecond, policy.Backoff(0))
	})
}
