package application

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/tagdelta/tagdelta/domain"
)

// Defaults applied when CompareOptions leaves a knob at its zero value.
const (
	DefaultConcurrency   = 8
	DefaultPayloadBudget = 48000
)

// CompareOptions holds the runtime knobs of one comparison.
type CompareOptions struct {
	// CommitLimit bounds how many commits are analyzed; 0 means all.
	CommitLimit int

	// Concurrency is the detail-fetch worker pool size.
	Concurrency int

	// RetryAttempts bounds the backoff loops against the hosting API.
	RetryAttempts int

	// PayloadBudget caps the summarization payload in characters.
	PayloadBudget int

	// InstructionTemplate overrides the default summarization instruction.
	InstructionTemplate string

	// PathFilter restricts aggregation to matching file paths (doublestar
	// glob); empty means no filtering.
	PathFilter string

	// Deadline bounds the whole comparison; 0 means no deadline. On
	// expiry whatever completed is still aggregated and the result is
	// flagged TimedOut.
	Deadline time.Duration
}

func (o CompareOptions) withDefaults() CompareOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = domain.DefaultRetryPolicy().MaxAttempts
	}
	if o.PayloadBudget <= 0 {
		o.PayloadBudget = DefaultPayloadBudget
	}
	return o
}

func (o CompareOptions) retryPolicy() domain.RetryPolicy {
	policy := domain.DefaultRetryPolicy()
	policy.MaxAttempts = o.RetryAttempts
	return policy
}

// CompareService is the caller-facing entry point: it runs the comparison
// pipeline (resolve -> list -> fetch -> aggregate) and, on request, hands
// the bounded payload to the summarization service.
type CompareService struct {
	host       domain.Host
	summarizer domain.Summarizer
}

// NewCompareService creates a service for the given host. The summarizer
// may be nil when summarization is not configured; Summarize then fails.
func NewCompareService(host domain.Host, summarizer domain.Summarizer) *CompareService {
	return &CompareService{
		host:       host,
		summarizer: summarizer,
	}
}

// CompareTags compares two tags and returns the aggregated result. Per-
// commit detail failures are recorded in the result, not surfaced as
// errors: partial success is a normal outcome. Terminal errors (unknown
// tag, missing authorization, unrelated histories, exhausted rate-limit
// retries) abort the comparison.
func (s *CompareService) CompareTags(
	ctx context.Context,
	repo domain.RepositoryRef,
	base, head string,
	opts CompareOptions,
) (*domain.ComparisonResult, error) {
	pair := domain.TagPair{Base: base, Head: head}
	if err := pair.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	logger.Infof("Comparing %s..%s in %s", base, head, repo.FullName())

	baseSHA, headSHA, err := resolveRange(ctx, s.host, repo, pair)
	if err != nil {
		return nil, err
	}

	policy := opts.retryPolicy()
	gate := newRateGate()

	refs, listErr := listCommits(ctx, s.host, repo, baseSHA, headSHA, opts.CommitLimit, policy, gate)
	if listErr != nil && !errors.Is(listErr, context.DeadlineExceeded) {
		return nil, listErr
	}

	logger.Infof("Fetching details for %d commits (concurrency %d)", len(refs), opts.Concurrency)

	details := newFetcher(s.host, policy, gate, opts.Concurrency).fetchAll(ctx, repo, refs)

	result := Aggregate(repo, pair, baseSHA, headSHA, details, AggregateOptions{
		PathFilter: opts.PathFilter,
	})
	result.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)

	logger.Infof(
		"Comparison done: %d commits, %d files touched, +%d/-%d, %d failed",
		len(result.Commits), result.FilesTouched,
		result.Additions, result.Deletions, len(result.FailedCommits),
	)

	return &result, nil
}

// Summarize builds the bounded payload for the comparison result and asks
// the summarization service for a prose summary. Summarizer failures are
// passed through wrapped as SummarizationFailedError.
func (s *CompareService) Summarize(
	ctx context.Context,
	result *domain.ComparisonResult,
	opts CompareOptions,
) (string, error) {
	if s.summarizer == nil {
		return "", errors.New("no summarizer configured")
	}
	opts = opts.withDefaults()

	payload, err := BuildPayload(*result, opts.InstructionTemplate, opts.PayloadBudget)
	if err != nil {
		return "", err
	}
	if payload.Truncated {
		logger.Debugf("Payload truncated: %d file excerpts shortened to fit %d characters",
			payload.TruncatedFiles, opts.PayloadBudget)
	}

	summary, err := s.summarizer.Summarize(ctx, payload.Text)
	if err != nil {
		return "", &domain.SummarizationFailedError{Service: s.summarizer.Name(), Err: err}
	}
	if summary == "" {
		return "", &domain.SummarizationFailedError{
			Service: s.summarizer.Name(),
			Err:     errors.New("empty summary returned"),
		}
	}

	return summary, nil
}

// Host exposes the configured hosting service, used by the CLI for tag
// listing and repository discovery.
func (s *CompareService) Host() domain.Host {
	return s.host
}
