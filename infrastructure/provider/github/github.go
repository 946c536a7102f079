package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/mod/semver"

	"github.com/tagdelta/tagdelta/domain"
)

const (
	hostName = "github"
	perPage  = 100

	// maxPatchBytes bounds the per-file diff excerpt carried in memory;
	// the payload builder may shrink it further.
	maxPatchBytes = 4000
)

// Provider implements domain.Host for GitHub and GitHub Enterprise.
type Provider struct {
	token  string
	client *gh.Client
}

// New creates a GitHub host with the given token. baseURL is empty for
// github.com or the base URL of an enterprise instance.
func New(token, baseURL string) (domain.Host, error) {
	client := gh.NewClient(nil).WithAuthToken(token)
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise URLs: %w", err)
		}
	}
	return &Provider{token: token, client: client}, nil
}

func (p *Provider) Name() string      { return hostName }
func (p *Provider) AuthToken() string { return p.token }

// ResolveRef resolves a tag, branch, or SHA prefix to a full commit SHA.
func (p *Provider) ResolveRef(
	ctx context.Context,
	repo domain.RepositoryRef,
	ref string,
) (string, error) {
	sha, resp, err := p.client.Repositories.GetCommitSHA1(ctx, repo.Owner, repo.Name, ref, "")
	if err != nil {
		if status(resp) == http.StatusNotFound || status(resp) == http.StatusUnprocessableEntity {
			return "", &domain.ReferenceNotFoundError{Repo: repo, Ref: ref}
		}
		return "", mapError(repo, resp, err)
	}
	return sha, nil
}

// CompareCommitsPage returns one page of the native compare listing
// (base...head, oldest first) and the next page number.
func (p *Provider) CompareCommitsPage(
	ctx context.Context,
	repo domain.RepositoryRef,
	baseSHA, headSHA string,
	page int,
) ([]domain.CommitRef, int, error) {
	opts := &gh.ListOptions{Page: page, PerPage: perPage}
	comparison, resp, err := p.client.Repositories.CompareCommits(
		ctx, repo.Owner, repo.Name, baseSHA, headSHA, opts,
	)
	if err != nil {
		if status(resp) == http.StatusNotFound {
			// With both SHAs already resolved, a 404 on compare means
			// the commits share no ancestry.
			return nil, 0, &domain.RangeResolutionError{Repo: repo, Base: baseSHA, Head: headSHA}
		}
		return nil, 0, mapError(repo, resp, err)
	}

	refs := make([]domain.CommitRef, 0, len(comparison.Commits))
	for _, commit := range comparison.Commits {
		refs = append(refs, toCommitRef(commit))
	}

	return refs, resp.NextPage, nil
}

// GetCommitDetail retrieves one commit's changed files and stats.
func (p *Provider) GetCommitDetail(
	ctx context.Context,
	repo domain.RepositoryRef,
	sha string,
) (*domain.CommitDetail, error) {
	opts := &gh.ListOptions{PerPage: perPage}
	commit, resp, err := p.client.Repositories.GetCommit(ctx, repo.Owner, repo.Name, sha, opts)
	if err != nil {
		if status(resp) == http.StatusNotFound {
			return nil, fmt.Errorf("commit %q not found in %s", sha, repo.FullName())
		}
		return nil, mapError(repo, resp, err)
	}

	detail := &domain.CommitDetail{
		CommitRef: toCommitRef(commit),
		Additions: commit.GetStats().GetAdditions(),
		Deletions: commit.GetStats().GetDeletions(),
	}

	for _, file := range commit.Files {
		detail.Files = append(detail.Files, domain.FileChange{
			Path:      file.GetFilename(),
			PrevPath:  file.GetPreviousFilename(),
			Kind:      domain.ParseChangeKind(file.GetStatus()),
			Additions: file.GetAdditions(),
			Deletions: file.GetDeletions(),
			Patch:     truncatePatch(file.GetPatch()),
		})
	}

	if commit.Stats == nil {
		for _, file := range detail.Files {
			detail.Additions += file.Additions
			detail.Deletions += file.Deletions
		}
	}

	return detail, nil
}

// ListTags returns all tags for a repository, sorted by semantic version
// descending.
func (p *Provider) ListTags(
	ctx context.Context,
	repo domain.RepositoryRef,
) ([]string, error) {
	var allTags []string
	opts := &gh.ListOptions{PerPage: perPage}

	for {
		tags, resp, err := p.client.Repositories.ListTags(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, mapError(repo, resp, err)
		}

		for _, tag := range tags {
			allTags = append(allTags, tag.GetName())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sortVersionsDescending(allTags)
	return allTags, nil
}

// DiscoverRepositories lists the repositories of the authenticated user
// plus those of every organization the user belongs to.
func (p *Provider) DiscoverRepositories(ctx context.Context) ([]domain.RepositoryRef, error) {
	seen := make(map[string]bool)
	var all []domain.RepositoryRef

	add := func(owner, name string) {
		full := owner + "/" + name
		if !seen[full] {
			seen[full] = true
			all = append(all, domain.RepositoryRef{Owner: owner, Name: name})
		}
	}

	userOpts := &gh.RepositoryListByAuthenticatedUserOptions{
		Type:        "all",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	for {
		repos, resp, err := p.client.Repositories.ListByAuthenticatedUser(ctx, userOpts)
		if err != nil {
			return nil, mapError(domain.RepositoryRef{}, resp, err)
		}
		for _, r := range repos {
			add(r.GetOwner().GetLogin(), r.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		userOpts.Page = resp.NextPage
	}

	orgOpts := &gh.ListOptions{PerPage: perPage}
	var orgs []string
	for {
		list, resp, err := p.client.Organizations.List(ctx, "", orgOpts)
		if err != nil {
			return nil, mapError(domain.RepositoryRef{}, resp, err)
		}
		for _, org := range list {
			orgs = append(orgs, org.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		orgOpts.Page = resp.NextPage
	}

	for _, org := range orgs {
		opts := &gh.RepositoryListByOrgOptions{
			Type:        "all",
			ListOptions: gh.ListOptions{PerPage: perPage},
		}
		for {
			repos, resp, err := p.client.Repositories.ListByOrg(ctx, org, opts)
			if err != nil {
				return nil, mapError(domain.RepositoryRef{}, resp, err)
			}
			for _, r := range repos {
				add(r.GetOwner().GetLogin(), r.GetName())
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}

	return all, nil
}

// --- conversions ---

func toCommitRef(commit *gh.RepositoryCommit) domain.CommitRef {
	ref := domain.CommitRef{
		SHA:     commit.GetSHA(),
		Subject: firstLine(commit.GetCommit().GetMessage()),
	}
	if author := commit.GetCommit().GetAuthor(); author != nil {
		ref.Author = author.GetName()
		ref.AuthoredAt = author.GetDate().Time
	}
	if ref.Author == "" {
		ref.Author = commit.GetAuthor().GetLogin()
	}
	return ref
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return strings.TrimSpace(message[:idx])
	}
	return strings.TrimSpace(message)
}

func truncatePatch(patch string) string {
	if len(patch) <= maxPatchBytes {
		return patch
	}
	return patch[:maxPatchBytes]
}

// --- error classification ---

func status(resp *gh.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

// mapError translates go-github errors into the domain taxonomy: primary
// and secondary rate limits become retryable RateLimitedError, credential
// problems become AuthorizationError, 5xx and transport failures become
// retryable TransientError.
func mapError(repo domain.RepositoryRef, resp *gh.Response, err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &domain.RateLimitedError{ResetAt: rateErr.Rate.Reset.Time}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &domain.RateLimitedError{ResetAt: time.Now().Add(abuseErr.GetRetryAfter())}
	}

	switch code := status(resp); {
	case code == http.StatusTooManyRequests:
		return &domain.RateLimitedError{}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &domain.AuthorizationError{Repo: repo}
	case code >= 500:
		return &domain.TransientError{Status: code, Err: err}
	case code == 0:
		// No HTTP response at all: network-level failure.
		return &domain.TransientError{Err: err}
	default:
		return err
	}
}

// --- version sorting ---

func sortVersionsDescending(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		v1 := normalizeVersion(versions[i])
		v2 := normalizeVersion(versions[j])
		if semver.IsValid(v1) && semver.IsValid(v2) {
			return semver.Compare(v1, v2) > 0
		}
		return versions[i] > versions[j]
	})
}

func normalizeVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
