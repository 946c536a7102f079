package application //nolint:testpackage // tests unexported functions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagdelta/tagdelta/domain"
	testdoubles "github.com/tagdelta/tagdelta/test"
)

func fastPolicy() domain.RetryPolicy {
	return domain.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func commitRefs(shas ...string) []domain.CommitRef {
	refs := make([]domain.CommitRef, len(shas))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, sha := range shas {
		refs[i] = domain.CommitRef{
			SHA:        sha,
			Subject:    "commit " + sha,
			AuthoredAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return refs
}

func TestListCommits(t *testing.T) {
	t.Parallel()

	repo := domain.RepositoryRef{Owner: "octocat", Name: "hello"}

	t.Run("should collect all pages in order when limit is zero", func(t *testing.T) {
		t.Parallel()

		// given
		host := &testdoubles.SpyHost{
			Pages: [][]domain.CommitRef{
				commitRefs("c1", "c2"),
				commitRefs("c3", "c4"),
				commitRefs("c5"),
			},
		}

		// when
		refs, err := listCommits(context.Background(), host, repo, "base", "head", 0, fastPolicy(), newRateGate())

		// then
		require.NoError(t, err)
		require.Len(t, refs, 5)
		assert.Equal(t, []int{1, 2, 3}, host.RequestedPages)
		for i, sha := range []string{"c1", "c2", "c3", "c4", "c5"} {
			assert.Equal(t, sha, refs[i].SHA)
		}
	})

	t.Run("should keep the most recent commits when a limit is set", func(t *testing.T) {
		t.Parallel()

		// given
		host := &testdoubles.SpyHost{
			Pages: [][]domain.CommitRef{
				commitRefs("c1", "c2", "c3"),
				commitRefs("c4", "c5"),
			},
		}

		// when
		refs, err := listCommits(context.Background(), host, repo, "base", "head", 2, fastPolicy(), newRateGate())

		// then
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, "c4", refs[0].SHA)
		assert.Equal(t, "c5", refs[1].SHA)
	})

	t.Run("should return exactly K commits when limit exceeds the range", func(t *testing.T) {
		t.Parallel()

		// given
		host := &testdoubles.SpyHost{
			Pages: [][]domain.CommitRef{commitRefs("c1", "c2", "c3")},
		}

		// when
		refs, err := listCommits(context.Background(), host, repo, "base", "head", 10, fastPolicy(), newRateGate())

		// then
		require.NoError(t, err)
		assert.Len(t, refs, 3)
	})

	t.Run("should retry rate-limited pages and then succeed", func(t *testing.T) {
		t.Parallel()

		// given
		host := &testdoubles.SpyHost{
			Pages:    [][]domain.CommitRef{commitRefs("c1")},
			PageErrs: []error{&domain.RateLimitedError{}, &domain.TransientError{Status: 503}},
		}

		// when
		refs, err := listCommits(context.Background(), host, repo, "base", "head", 0, fastPolicy(), newRateGate())

		// then
		require.NoError(t, err)
		assert.Len(t, refs, 1)
		assert.Equal(t, []int{1, 1, 1}, host.RequestedPages)
	})

	t.Run("should surface RateLimitExceededError when retries run out", func(t *testing.T) {
		t.Parallel()

		// given
		host := &testdoubles.SpyHost{
			Pages: [][]domain.CommitRef{commitRefs("c1")},
			PageErrs: []error{
				&domain.RateLimitedError{},
				&domain.RateLimitedError{},
				&domain.RateLimitedError{},
			},
		}

		// when
		_, err := listCommits(context.Background(), host, repo, "base", "head", 0, fastPolicy(), newRateGate())

		// then
		var exceeded *domain.RateLimitExceededError
		require.ErrorAs(t, err, &exceeded)
		assert.Equal(t, 3, exceeded.Attempts)
	})

	t.Run("should not retry a range resolution failure", func(t *testing.T) {
		t.Parallel()

		// given
		rangeErr := &domain.RangeResolutionError{Repo: repo, Base: "base", Head: "head"}
		host := &testdoubles.SpyHost{
			PageErrs: []error{rangeErr},
		}

		// when
		_, err := listCommits(context.Background(), host, repo, "base", "head", 0, fastPolicy(), newRateGate())

		// then
		var resolved *domain.RangeResolutionError
		require.ErrorAs(t, err, &resolved)
		assert.Len(t, host.RequestedPages, 1)
	})

	t.Run("should return the partial listing when the context expires", func(t *testing.T) {
		t.Parallel()

		// given
		ctx, cancel := context.WithCancel(context.Background())
		host := &testdoubles.SpyHost{
			Pages: [][]domain.CommitRef{
				commitRefs("c1"),
				commitRefs("c2"),
			},
			// A retryable failure on page 2 forces a gate wait, during
			// which the context is already cancelled.
			PageErrs: []error{nil, &domain.RateLimitedError{}},
		}
		// first page succeeds, then cancel before page 2 retries
		cancel()

		// when
		refs, err := listCommits(ctx, host, repo, "base", "head", 0, fastPolicy(), newRateGate())

		// then
		require.Error(t, err)
		assert.LessOrEqual(t, len(refs), 1)
	})
}
