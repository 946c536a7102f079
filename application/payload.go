package application

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tagdelta/tagdelta/domain"
)

// DefaultInstructionTemplate is the instruction sent to the summarizer when
// the caller supplies none. Placeholders in braces are substituted from the
// comparison result; unknown placeholders are left verbatim.
const DefaultInstructionTemplate = `You are an expert software engineer. Summarize the following commit history with insights about the code changes.

Repository: {repo} ({base_tag} -> {head_tag})
Commits analyzed: {commit_count}
Files changed: {file_count} (+{additions} / -{deletions})
Commits that failed retrieval: {failed_count}

Changed files:
{file_list}

Commit messages:
{commit_messages}

Diff excerpts:
{diff_excerpts}
`

// BuildPayload renders the comparison result through the instruction
// template into a single bounded payload. If the naive rendering exceeds
// the character budget, patch excerpts are truncated per file with the
// longest files shortened first; paths and stats are never dropped. A
// budget of 0 disables the bound.
func BuildPayload(result domain.ComparisonResult, template string, budget int) (domain.Payload, error) {
	if template == "" {
		template = DefaultInstructionTemplate
	}

	full := renderPayload(result, template, -1)
	if budget <= 0 || len(full) <= budget {
		return domain.Payload{Text: full}, nil
	}

	// Even with every excerpt removed the structure has to fit; otherwise
	// only a smaller commit limit can help.
	bare := renderPayload(result, template, 0)
	if len(bare) > budget {
		return domain.Payload{}, &domain.PayloadTooLargeError{Size: len(bare), Budget: budget}
	}

	// Binary-search the largest per-file excerpt cap that meets the
	// budget. A uniform cap shortens the longest patches first and leaves
	// the rest untouched, so truncation is deterministic.
	low, high := 0, longestPatch(result)
	for low < high {
		mid := (low + high + 1) / 2
		if len(renderPayload(result, template, mid)) <= budget {
			low = mid
		} else {
			high = mid - 1
		}
	}

	text := renderPayload(result, template, low)
	return domain.Payload{
		Text:           text,
		Truncated:      true,
		TruncatedFiles: countTruncated(result, low),
	}, nil
}

// renderPayload substitutes the known placeholders. excerptCap bounds each
// file's patch excerpt in bytes; negative means unbounded.
func renderPayload(result domain.ComparisonResult, template string, excerptCap int) string {
	replacer := strings.NewReplacer(
		"{repo}", result.Repo.FullName(),
		"{base_tag}", result.Tags.Base,
		"{head_tag}", result.Tags.Head,
		"{commit_count}", strconv.Itoa(len(result.Commits)),
		"{file_count}", strconv.Itoa(result.FilesTouched),
		"{additions}", strconv.Itoa(result.Additions),
		"{deletions}", strconv.Itoa(result.Deletions),
		"{failed_count}", strconv.Itoa(len(result.FailedCommits)),
		"{file_list}", renderFileList(result),
		"{commit_messages}", renderCommitMessages(result),
		"{diff_excerpts}", renderDiffExcerpts(result, excerptCap),
	)
	return replacer.Replace(template)
}

func renderFileList(result domain.ComparisonResult) string {
	seen := make(map[string]bool)
	var paths []string
	for _, commit := range result.Commits {
		for _, file := range commit.Files {
			if !seen[file.Path] {
				seen[file.Path] = true
				paths = append(paths, fmt.Sprintf("%s (%s)", file.Path, file.Kind))
			}
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return "(none)"
	}
	return strings.Join(paths, "\n")
}

func renderCommitMessages(result domain.ComparisonResult) string {
	var lines []string
	for _, commit := range result.Commits {
		if commit.Failed() {
			lines = append(lines, fmt.Sprintf("%s %s [detail unavailable: %s]",
				commit.ShortSHA(), commit.Subject, commit.FetchError))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", commit.ShortSHA(), commit.Subject))
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n")
}

func renderDiffExcerpts(result domain.ComparisonResult, excerptCap int) string {
	var b strings.Builder
	for _, commit := range result.Commits {
		for _, file := range commit.Files {
			fmt.Fprintf(&b, "--- %s @ %s (%s, +%d/-%d)\n",
				file.Path, commit.ShortSHA(), file.Kind, file.Additions, file.Deletions)
			patch := file.Patch
			if excerptCap >= 0 && len(patch) > excerptCap {
				patch = cutAtRune(patch, excerptCap)
			}
			if patch != "" {
				b.WriteString(patch)
				b.WriteString("\n")
			}
		}
	}
	if b.Len() == 0 {
		return "(none)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func longestPatch(result domain.ComparisonResult) int {
	longest := 0
	for _, commit := range result.Commits {
		for _, file := range commit.Files {
			if len(file.Patch) > longest {
				longest = len(file.Patch)
			}
		}
	}
	return longest
}

func countTruncated(result domain.ComparisonResult, excerptCap int) int {
	count := 0
	for _, commit := range result.Commits {
		for _, file := range commit.Files {
			if len(file.Patch) > excerptCap {
				count++
			}
		}
	}
	return count
}

// cutAtRune truncates s to at most n bytes without splitting a UTF-8
// sequence.
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
