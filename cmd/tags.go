package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tagdelta/tagdelta/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var tagsCmd = &cobra.Command{
	Use:   "tags OWNER/REPO",
	Short: "List a repository's tags",
	Long:  `List all tags of a repository, sorted by semantic version descending.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTags,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	repo, err := domain.ParseRepositoryRef(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo.Host = cfg.GitHub.Host

	svc, err := injectCompareService(cfg)
	if err != nil {
		return err
	}

	tags, err := svc.Host().ListTags(ctx, repo)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Printf("No tags found in %s\n", repo.FullName())
		return nil
	}

	for _, tag := range tags {
		fmt.Println(tag)
	}
	return nil
}
