package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagdelta/tagdelta/application"
	"github.com/tagdelta/tagdelta/domain"
	testdoubles "github.com/tagdelta/tagdelta/test"
)

// --- helpers ---

func listedRefs(shas ...string) []domain.CommitRef {
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

func buildSpyHost(shas ...string) *testdoubles.SpyHost {
	details := make(map[string]*domain.CommitDetail, len(shas))
	for _, sha := range shas {
		details[sha] = &domain.CommitDetail{
			CommitRef: domain.CommitRef{SHA: sha},
			Files: []domain.FileChange{
				{Path: sha + ".go", Kind: domain.ChangeKindModified, Additions: 1, Deletions: 1},
			},
			Additions: 1,
			Deletions: 1,
		}
	}
	return &testdoubles.SpyHost{
		Refs: map[string]string{
			"v1.0.0": "base-sha",
			"v1.1.0": "head-sha",
		},
		Pages:   [][]domain.CommitRef{listedRefs(shas...)},
		Details: details,
	}
}

var testRepo = domain.RepositoryRef{Owner: "octocat", Name: "hello"}

func TestCompareService_CompareTags(t *testing.T) {
	t.Parallel()

	t.Run("should run the full pipeline and keep chronological order", func(t *testing.T) {
		t.Parallel()

		// given
		host := buildSpyHost("c1", "c2", "c3")
		svc := application.NewCompareService(host, nil)

		// when
		result, err := svc.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.1.0", application.CompareOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, "base-sha", result.BaseSHA)
		assert.Equal(t, "head-sha", result.HeadSHA)
		require.Len(t, result.Commits, 3)
		for i, sha := range []string{"c1", "c2", "c3"} {
			assert.Equal(t, sha, result.Commits[i].SHA)
		}
		assert.Equal(t, 3, result.FilesTouched)
		assert.False(t, result.TimedOut)
		assert.Equal(t, []string{"v1.0.0", "v1.1.0"}, host.ResolvedRefs)
	})

	t.Run("should reject identical tags before touching the host", func(t *testing.T) {
		t.Parallel()

		// given
		host := buildSpyHost("c1")
		svc := application.NewCompareService(host, nil)

		// when
		_, err := svc.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.0.0", application.CompareOptions{})

		// then
		require.Error(t, err)
		assert.Empty(t, host.ResolvedRefs)
	})

	t.Run("should surface ReferenceNotFoundError for an unknown tag", func(t *testing.T) {
		t.Parallel()

		// given
		host := buildSpyHost("c1")
		svc := application.NewCompareService(host, nil)

		// when
		_, err := svc.CompareTags(context.Background(), testRepo, "v1.0.0", "v9.9.9", application.CompareOptions{})

		// then
		var notFound *domain.ReferenceNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "v9.9.9", notFound.Ref)
	})

	t.Run("should apply the commit limit preferring the most recent", func(t *testing.T) {
		t.Parallel()

		// given
		host := buildSpyHost("c1", "c2", "c3", "c4")
		svc := application.NewCompareService(host, nil)

		// when
		result, err := svc.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.1.0", application.CompareOptions{
			CommitLimit: 2,
		})

		// then
		require.NoError(t, err)
		require.Len(t, result.Commits, 2)
		assert.Equal(t, "c3", result.Commits[0].SHA)
		assert.Equal(t, "c4", result.Commits[1].SHA)
	})

	t.Run("should treat per-commit failures as partial success", func(t *testing.T) {
		t.Parallel()

		// given
		host := buildSpyHost("c1", "c2", "c3")
		host.DetailErrs = map[string]error{
			"c2": errors.New("404 commit vanished"),
		}
		svc := application.NewCompareService(host, nil)

		// when
		result, err := svc.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.1.0", application.CompareOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, result.Commits, 3)
		assert.Equal(t, []string{"c2"}, result.FailedCommits)
		assert.True(t, result.Commits[1].Failed())
		assert.False(t, result.Commits[0].Failed())
		assert.False(t, result.Commits[2].Failed())
	})

	t.Run("should yield identical results for identical invocations", func(t *testing.T) {
		t.Parallel()

		// given
		svc1 := application.NewCompareService(buildSpyHost("c1", "c2"), nil)
		svc2 := application.NewCompareService(buildSpyHost("c1", "c2"), nil)

		// when
		first, err1 := svc1.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.1.0", application.CompareOptions{})
		second, err2 := svc2.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.1.0", application.CompareOptions{})

		// then
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first, second)
	})

	t.Run("should flag a timed-out comparison and keep the completed subset", func(t *testing.T) {
		t.Parallel()

		// given
		host := buildSpyHost("c1", "c2")
		host.DetailDelays = map[string]time.Duration{
			"c2": 300 * time.Millisecond,
		}
		svc := application.NewCompareService(host, nil)

		// when
		result, err := svc.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.1.0", application.CompareOptions{
			Deadline: 80 * time.Millisecond,
		})

		// then
		require.NoError(t, err)
		assert.True(t, result.TimedOut)
		require.Len(t, result.Commits, 2)
		assert.False(t, result.Commits[0].Failed())
		assert.Equal(t, "cancelled", result.Commits[1].FetchError)
		assert.Equal(t, []string{"c2"}, result.FailedCommits)
	})
}

func TestCompareService_Summarize(t *testing.T) {
	t.Parallel()

	t.Run("should send the rendered payload and return the summary", func(t *testing.T) {
		t.Parallel()

		// given
		host := buildSpyHost("c1", "c2")
		stub := &testdoubles.StubSummarizer{Response: "Two small changes."}
		svc := application.NewCompareService(host, stub)

		result, err := svc.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.1.0", application.CompareOptions{})
		require.NoError(t, err)

		// when
		summary, err := svc.Summarize(context.Background(), result, application.CompareOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, "Two small changes.", summary)
		require.Len(t, stub.Prompts, 1)
		assert.Contains(t, stub.Prompts[0], "octocat/hello")
		assert.Contains(t, stub.Prompts[0], "c1.go")
	})

	t.Run("should wrap summarizer failures", func(t *testing.T) {
		t.Parallel()

		// given
		host := buildSpyHost("c1")
		stub := &testdoubles.StubSummarizer{Err: errors.New("connection refused")}
		svc := application.NewCompareService(host, stub)

		result, err := svc.CompareTags(context.Background(), testRepo, "v1.0.0", "v1.1.0", application.CompareOptions{})
		require.NoError(t, err)

		// when
		_, err = svc.Summarize(context.Background(), result, application.CompareOptions{})

		// then
		var failed *domain.SummarizationFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "stub", failed.Service)
	})

	t.Run("should fail when no summarizer is configured", func(t *testing.T) {
		t.Parallel()

		// given
		svc := application.NewCompareService(buildSpyHost("c1"), nil)

		// when
		_, err := svc.Summarize(context.Background(), &domain.ComparisonResult{}, application.CompareOptions{})

		// then
		assert.ErrorContains(t, err, "no summarizer configured")
	})
}
