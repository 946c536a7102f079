package application

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/tagdelta/tagdelta/domain"
)

// AggregateOptions tunes the aggregation step.
type AggregateOptions struct {
	// PathFilter is an optional doublestar glob; when set, only file
	// changes whose path matches contribute to the result. Commit entries
	// themselves are always kept.
	PathFilter string
}

// Aggregate merges per-commit details into one ComparisonResult. Pure and
// deterministic: commits are deduplicated by identifier (first occurrence
// wins, defending against pagination overlap), totals are computed from the
// surviving file changes, and failed retrievals are listed separately
// without being dropped from the sequence.
func Aggregate(
	repo domain.RepositoryRef,
	tags domain.TagPair,
	baseSHA, headSHA string,
	details []domain.CommitDetail,
	opts AggregateOptions,
) domain.ComparisonResult {
	result := domain.ComparisonResult{
		Repo:    repo,
		Tags:    tags,
		BaseSHA: baseSHA,
		HeadSHA: headSHA,
	}

	seen := make(map[string]bool, len(details))
	touched := make(map[string]bool)

	for _, detail := range details {
		if seen[detail.SHA] {
			continue
		}
		seen[detail.SHA] = true

		if detail.Failed() {
			result.Commits = append(result.Commits, detail)
			result.FailedCommits = append(result.FailedCommits, detail.SHA)
			continue
		}

		if opts.PathFilter != "" {
			detail.Files = filterFiles(detail.Files, opts.PathFilter)
			detail.Additions, detail.Deletions = sumChanges(detail.Files)
		}
		for _, file := range detail.Files {
			touched[file.Path] = true
		}

		result.Commits = append(result.Commits, detail)
		result.Additions += detail.Additions
		result.Deletions += detail.Deletions
	}

	result.FilesTouched = len(touched)
	return result
}

func sumChanges(files []domain.FileChange) (additions, deletions int) {
	for _, file := range files {
		additions += file.Additions
		deletions += file.Deletions
	}
	return additions, deletions
}

func filterFiles(files []domain.FileChange, pattern string) []domain.FileChange {
	if pattern == "" {
		return files
	}
	var kept []domain.FileChange
	for _, file := range files {
		matched, _ := doublestar.Match(pattern, file.Path)
		if matched {
			kept = append(kept, file)
		}
	}
	return kept
}
