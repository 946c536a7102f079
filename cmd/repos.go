package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List repositories the token can read",
	Long: `List all repositories the authenticated user has access to,
including those of the organizations the user belongs to.`,
	Args: cobra.NoArgs,
	RunE: runRepos,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(reposCmd)
}

func runRepos(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := injectCompareService(cfg)
	if err != nil {
		return err
	}

	repos, err := svc.Host().DiscoverRepositories(ctx)
	if err != nil {
		return err
	}

	for _, repo := range repos {
		fmt.Println(repo.FullName())
	}
	return nil
}
