package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/tagdelta/tagdelta/domain"
)

// listCommits paginates the host's compare endpoint and collects the
// commits reachable between base and head, oldest first. limit == 0 means
// unbounded; limit == N keeps the N most recent. Rate-limited pages are
// retried under the policy with the shared gate; exhausting the retry
// budget is terminal. On context expiry the commits collected so far are
// returned alongside the context error so partial data survives.
func listCommits(
	ctx context.Context,
	host domain.Host,
	repo domain.RepositoryRef,
	baseSHA, headSHA string,
	limit int,
	policy domain.RetryPolicy,
	gate *rateGate,
) ([]domain.CommitRef, error) {
	var all []domain.CommitRef

	page := 1
	for {
		refs, next, err := listPage(ctx, host, repo, baseSHA, headSHA, page, policy, gate)
		if err != nil {
			return all, err
		}

		all = append(all, refs...)
		if next == 0 {
			break
		}
		page = next
	}

	logger.Debugf("Listed %d commits between %.7s and %.7s", len(all), baseSHA, headSHA)

	if limit > 0 && len(all) > limit {
		// Keep the most recent commits: compare ordering is oldest first.
		all = all[len(all)-limit:]
	}

	return all, nil
}

// listPage requests one compare page, retrying transient and rate-limit
// failures under the policy.
func listPage(
	ctx context.Context,
	host domain.Host,
	repo domain.RepositoryRef,
	baseSHA, headSHA string,
	page int,
	policy domain.RetryPolicy,
	gate *rateGate,
) ([]domain.CommitRef, int, error) {
	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if waitErr := gate.Wait(ctx); waitErr != nil {
			return nil, 0, waitErr
		}

		refs, next, err := host.CompareCommitsPage(ctx, repo, baseSHA, headSHA, page)
		if err == nil {
			return refs, next, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		if !domain.IsRetryable(err) {
			return nil, 0, err
		}

		lastErr = err
		holdGate(gate, err, policy.Backoff(attempt))
		logger.Warnf(
			"Compare page %d failed (attempt %d/%d): %v",
			page, attempt+1, policy.MaxAttempts, err,
		)
	}

	var rl *domain.RateLimitedError
	if errors.As(lastErr, &rl) {
		return nil, 0, &domain.RateLimitExceededError{Attempts: policy.MaxAttempts}
	}
	return nil, 0, fmt.Errorf("compare page %d failed after %d attempts: %w", page, policy.MaxAttempts, lastErr)
}

// holdGate throttles the shared gate after a retryable failure, preferring
// the server-announced reset time when it is further out than the backoff.
func holdGate(gate *rateGate, err error, backoff time.Duration) {
	gate.HoldFor(backoff)
	var rl *domain.RateLimitedError
	if errors.As(err, &rl) && !rl.ResetAt.IsZero() {
		gate.HoldUntil(rl.ResetAt)
	}
}
