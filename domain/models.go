package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RepositoryRef identifies a repository on a Git hosting service.
// Host is empty for the public service and set to the base URL for
// enterprise instances.
type RepositoryRef struct {
	Owner string
	Name  string
	Host  string
}

// FullName returns the "owner/name" form used by the hosting API.
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepositoryRef parses an "owner/name" string into a RepositoryRef.
func ParseRepositoryRef(s string) (RepositoryRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryRef{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return RepositoryRef{Owner: parts[0], Name: parts[1]}, nil
}

// TagPair names the two boundaries of a comparison. Base is the older tag.
type TagPair struct {
	Base string
	Head string
}

// Validate checks that both tags are present and distinct.
func (p TagPair) Validate() error {
	if p.Base == "" || p.Head == "" {
		return errors.New("both base and head tags are required")
	}
	if p.Base == p.Head {
		return fmt.Errorf("base and head tags are identical: %q", p.Base)
	}
	return nil
}

// CommitRef is the listing-level view of a commit.
type CommitRef struct {
	SHA        string
	Author     string
	AuthoredAt time.Time
	Subject    string
}

// ShortSHA returns the abbreviated commit identifier.
func (c CommitRef) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

// ChangeKind represents the type of change a commit made to a file.
type ChangeKind int

const (
	ChangeKindAdded ChangeKind = iota
	ChangeKindModified
	ChangeKindRemoved
	ChangeKindRenamed
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeKindAdded:
		return "added"
	case ChangeKindModified:
		return "modified"
	case ChangeKindRemoved:
		return "removed"
	case ChangeKindRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ParseChangeKind maps a hosting-API status string to a ChangeKind.
// Unrecognized statuses are treated as modifications.
func ParseChangeKind(status string) ChangeKind {
	switch status {
	case "added", "copied":
		return ChangeKindAdded
	case "removed", "deleted":
		return ChangeKindRemoved
	case "renamed":
		return ChangeKindRenamed
	default:
		return ChangeKindModified
	}
}

// FileChange represents one file's change within a commit. Patch holds a
// bounded diff excerpt; it may be empty for binary or oversized files.
type FileChange struct {
	Path      string
	PrevPath  string // set for renames
	Kind      ChangeKind
	Additions int
	Deletions int
	Patch     string
}

// CommitDetail is a CommitRef augmented with its file-level changes.
// A non-empty FetchError means the detail retrieval failed permanently;
// the entry still occupies its chronological position.
type CommitDetail struct {
	CommitRef
	Files      []FileChange
	Additions  int
	Deletions  int
	FetchError string
}

// Failed reports whether the detail fetch for this commit failed.
func (d CommitDetail) Failed() bool {
	return d.FetchError != ""
}

// ComparisonResult is the aggregated outcome of one tag comparison.
// Commits are chronological (base to head) and duplicate-free. The result
// is owned by a single invocation and never mutated after it is built.
type ComparisonResult struct {
	Repo    RepositoryRef
	Tags    TagPair
	BaseSHA string
	HeadSHA string

	Commits []CommitDetail

	FilesTouched int
	Additions    int
	Deletions    int

	// FailedCommits lists the identifiers whose detail fetch failed.
	FailedCommits []string

	// TimedOut is set when the comparison deadline expired before all
	// details were retrieved; Commits then contains the completed subset
	// with the remainder marked failed.
	TimedOut bool
}

// Payload is the bounded text artifact handed to the summarization service.
type Payload struct {
	Text string

	// Truncation metadata: how many file patch excerpts were shortened
	// to meet the size budget.
	Truncated      bool
	TruncatedFiles int
}
