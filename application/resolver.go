package application

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/tagdelta/tagdelta/domain"
)

// resolveRange turns the two tag names into commit identifiers. No retries:
// a missing reference is not a transient condition, and the host maps
// missing refs and credential problems to their terminal error types.
func resolveRange(
	ctx context.Context,
	host domain.Host,
	repo domain.RepositoryRef,
	pair domain.TagPair,
) (string, string, error) {
	baseSHA, err := host.ResolveRef(ctx, repo, pair.Base)
	if err != nil {
		return "", "", fmt.Errorf("resolving base tag: %w", err)
	}

	headSHA, err := host.ResolveRef(ctx, repo, pair.Head)
	if err != nil {
		return "", "", fmt.Errorf("resolving head tag: %w", err)
	}

	logger.Debugf(
		"Resolved %s -> %.7s and %s -> %.7s in %s",
		pair.Base, baseSHA, pair.Head, headSHA, repo.FullName(),
	)

	return baseSHA, headSHA, nil
}
