package application

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/tagdelta/tagdelta/domain"
)

// cancelledReason is recorded on commits whose detail fetch never completed
// because the comparison was cancelled or timed out.
const cancelledReason = "cancelled"

// fetcher retrieves commit details through a fixed-size worker pool. Every
// worker shares one rate gate, so a single rate-limit response throttles
// the whole pool instead of triggering correlated retries.
type fetcher struct {
	host        domain.Host
	policy      domain.RetryPolicy
	gate        *rateGate
	concurrency int
}

func newFetcher(host domain.Host, policy domain.RetryPolicy, gate *rateGate, concurrency int) *fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &fetcher{
		host:        host,
		policy:      policy,
		gate:        gate,
		concurrency: concurrency,
	}
}

// fetchAll resolves the details of every listed commit. The returned slice
// is positionally 1:1 with refs regardless of completion order: each worker
// writes into its own pre-sized slot. Per-commit failures are recorded in
// place and never abort sibling fetches; fetchAll itself cannot fail.
func (f *fetcher) fetchAll(
	ctx context.Context,
	repo domain.RepositoryRef,
	refs []domain.CommitRef,
) []domain.CommitDetail {
	details := make([]domain.CommitDetail, len(refs))
	if len(refs) == 0 {
		return details
	}

	jobs := make(chan int)
	go func() {
		defer close(jobs)
		for i := range refs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := f.concurrency
	if workers > len(refs) {
		workers = len(refs)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				details[i] = f.fetchOne(ctx, repo, refs[i])
			}
		}()
	}
	wg.Wait()

	// Slots never dispatched (cancellation drained the feed) keep their
	// listed identity and are marked failed.
	for i := range details {
		if details[i].SHA == "" {
			details[i] = domain.CommitDetail{CommitRef: refs[i], FetchError: cancelledReason}
		}
	}

	return details
}

// fetchOne retrieves a single commit's detail with bounded retries. The
// listed CommitRef stays authoritative for identity and ordering; only the
// file changes and stats come from the detail response.
func (f *fetcher) fetchOne(
	ctx context.Context,
	repo domain.RepositoryRef,
	ref domain.CommitRef,
) domain.CommitDetail {
	var lastErr error

	for attempt := 0; attempt < f.policy.MaxAttempts; attempt++ {
		if waitErr := f.gate.Wait(ctx); waitErr != nil {
			return domain.CommitDetail{CommitRef: ref, FetchError: cancelledReason}
		}

		detail, err := f.host.GetCommitDetail(ctx, repo, ref.SHA)
		if err == nil {
			detail.CommitRef = ref
			return *detail
		}
		if ctx.Err() != nil {
			return domain.CommitDetail{CommitRef: ref, FetchError: cancelledReason}
		}

		lastErr = err
		if !domain.IsRetryable(err) {
			break
		}

		holdGate(f.gate, err, f.policy.Backoff(attempt))
		logger.Debugf("Detail fetch for %s failed (attempt %d/%d): %v",
			ref.ShortSHA(), attempt+1, f.policy.MaxAttempts, err)
	}

	logger.Warnf("Giving up on commit %s: %v", ref.ShortSHA(), lastErr)
	return domain.CommitDetail{CommitRef: ref, FetchError: lastErr.Error()}
}
