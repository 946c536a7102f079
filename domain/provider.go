package domain

import "context"

// Host abstracts the Git hosting service consumed by the comparison
// pipeline. The single implementation targets GitHub; the interface exists
// so the pipeline and its tests never touch the network directly.
type Host interface {
	// Name returns the host identifier (e.g. "github").
	Name() string

	// ResolveRef resolves a tag, branch, or SHA prefix to a full commit SHA.
	// Returns *ReferenceNotFoundError when the ref does not exist and
	// *AuthorizationError when the credential lacks read access.
	ResolveRef(ctx context.Context, repo RepositoryRef, ref string) (string, error)

	// CompareCommitsPage returns one page of the commits reachable between
	// base and head (oldest first, the API's native compare ordering),
	// plus the next page number (0 when there are no further pages).
	// Returns *RangeResolutionError when the commits share no ancestry.
	CompareCommitsPage(ctx context.Context, repo RepositoryRef, baseSHA, headSHA string, page int) ([]CommitRef, int, error)

	// GetCommitDetail retrieves one commit's changed files and stats.
	GetCommitDetail(ctx context.Context, repo RepositoryRef, sha string) (*CommitDetail, error)

	// ListTags returns all tags for a repository, sorted by semantic
	// version descending.
	ListTags(ctx context.Context, repo RepositoryRef) ([]string, error)

	// DiscoverRepositories lists the repositories the authenticated user
	// can read, including those of their organizations.
	DiscoverRepositories(ctx context.Context) ([]RepositoryRef, error)

	// AuthToken returns the credential configured for this host.
	AuthToken() string
}
