// Package testdoubles provides test doubles (spies, stubs, dummies) for
// domain interfaces. These are hand-crafted implementations, no mock
// frameworks.
package testdoubles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tagdelta/tagdelta/domain"
)

// ---------------------------------------------------------------------------
// SpyHost
// ---------------------------------------------------------------------------

// SpyHost implements domain.Host as a configurable spy. Configure the
// response fields for the methods your test exercises, then inspect the
// call-tracking fields to verify behavior. Detail fetches run concurrently,
// so all mutable state is mutex-guarded.
type SpyHost struct {
	mu sync.Mutex

	// --- identity ---
	HostName string
	Token    string

	// --- ResolveRef ---
	Refs       map[string]string // ref -> sha
	ResolveErr error
	// spy: refs that were resolved
	ResolvedRefs []string

	// --- CompareCommitsPage ---
	Pages [][]domain.CommitRef // Pages[i] served for page i+1
	// PageErrs[i] is consumed (one per call) before pages are served,
	// letting tests script transient failures followed by success.
	PageErrs []error
	// spy: pages requested
	RequestedPages []int

	// --- GetCommitDetail ---
	Details map[string]*domain.CommitDetail
	// DetailErrs scripts a permanent error per SHA.
	DetailErrs map[string]error
	// DetailFailures scripts N retryable failures per SHA before success.
	DetailFailures map[string]int
	// DetailDelays simulates fetch latency per SHA.
	DetailDelays map[string]time.Duration
	// spy: SHAs fetched, in completion order
	FetchedSHAs []string
	// spy: highest number of fetches in flight at once
	MaxInFlight int
	inFlight    int

	// --- ListTags ---
	Tags    []string
	TagsErr error

	// --- DiscoverRepositories ---
	Repositories []domain.RepositoryRef
	DiscoverErr  error
}

var _ domain.Host = (*SpyHost)(nil)

func (h *SpyHost) Name() string {
	if h.HostName == "" {
		return "spy"
	}
	return h.HostName
}

func (h *SpyHost) AuthToken() string { return h.Token }

func (h *SpyHost) ResolveRef(
	_ context.Context,
	repo domain.RepositoryRef,
	ref string,
) (string, error) {
	h.mu.Lock()
	h.ResolvedRefs = append(h.ResolvedRefs, ref)
	h.mu.Unlock()

	if h.ResolveErr != nil {
		return "", h.ResolveErr
	}
	if sha, ok := h.Refs[ref]; ok {
		return sha, nil
	}
	return "", &domain.ReferenceNotFoundError{Repo: repo, Ref: ref}
}

func (h *SpyHost) CompareCommitsPage(
	_ context.Context,
	_ domain.RepositoryRef,
	_, _ string,
	page int,
) ([]domain.CommitRef, int, error) {
	h.mu.Lock()
	h.RequestedPages = append(h.RequestedPages, page)
	var scripted error
	if len(h.PageErrs) > 0 {
		scripted = h.PageErrs[0]
		h.PageErrs = h.PageErrs[1:]
	}
	h.mu.Unlock()

	if scripted != nil {
		return nil, 0, scripted
	}

	if page < 1 || page > len(h.Pages) {
		return nil, 0, nil
	}
	next := 0
	if page < len(h.Pages) {
		next = page + 1
	}
	return h.Pages[page-1], next, nil
}

func (h *SpyHost) GetCommitDetail(
	ctx context.Context,
	_ domain.RepositoryRef,
	sha string,
) (*domain.CommitDetail, error) {
	h.mu.Lock()
	h.inFlight++
	if h.inFlight > h.MaxInFlight {
		h.MaxInFlight = h.inFlight
	}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.inFlight--
		h.FetchedSHAs = append(h.FetchedSHAs, sha)
		h.mu.Unlock()
	}()

	if delay := h.DetailDelays[sha]; delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	h.mu.Lock()
	if remaining, ok := h.DetailFailures[sha]; ok && remaining > 0 {
		h.DetailFailures[sha] = remaining - 1
		h.mu.Unlock()
		return nil, &domain.TransientError{Status: 502, Err: fmt.Errorf("scripted failure for %s", sha)}
	}
	h.mu.Unlock()

	if err, ok := h.DetailErrs[sha]; ok {
		return nil, err
	}

	if detail, ok := h.Details[sha]; ok {
		copied := *detail
		return &copied, nil
	}

	// Default: an empty but successful detail.
	return &domain.CommitDetail{CommitRef: domain.CommitRef{SHA: sha}}, nil
}

func (h *SpyHost) ListTags(
	_ context.Context,
	_ domain.RepositoryRef,
) ([]string, error) {
	return h.Tags, h.TagsErr
}

func (h *SpyHost) DiscoverRepositories(_ context.Context) ([]domain.RepositoryRef, error) {
	return h.Repositories, h.DiscoverErr
}

// ---------------------------------------------------------------------------
// StubSummarizer
// ---------------------------------------------------------------------------

// StubSummarizer implements domain.Summarizer with a canned response and
// records the prompts it receives.
type StubSummarizer struct {
	mu       sync.Mutex
	Response string
	Err      error
	// spy: prompts received
	Prompts []string
}

var _ domain.Summarizer = (*StubSummarizer)(nil)

func (s *StubSummarizer) Name() string { return "stub" }

func (s *StubSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.Prompts = append(s.Prompts, prompt)
	s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}
