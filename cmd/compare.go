package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tagdelta/tagdelta/application"
	"github.com/tagdelta/tagdelta/config"
	"github.com/tagdelta/tagdelta/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	commitLimit   int
	concurrency   int
	retryAttempts int
	payloadBudget int
	template      string
	pathFilter    string
	deadline      time.Duration
	summarize     bool
	showFiles     bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var compareCmd = &cobra.Command{
	Use:   "compare OWNER/REPO BASE_TAG HEAD_TAG",
	Short: "Compare two tags and optionally summarize the changes",
	Long: `Compare two tags of a repository: list the commits between them,
fetch each commit's changed files concurrently, and print the aggregated
result. With --summarize the bounded payload is sent to the configured
AI service and the generated prose summary is printed.`,
	Args: cobra.ExactArgs(3),
	RunE: runCompare,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	compareCmd.Flags().IntVar(&commitLimit, "limit", -1,
		"Maximum commits to analyze, most recent first (0 = all, default from config)")
	compareCmd.Flags().IntVar(&concurrency, "concurrency", 0,
		"Detail-fetch worker pool size")
	compareCmd.Flags().IntVar(&retryAttempts, "retries", 0,
		"Retry attempts for transient API failures")
	compareCmd.Flags().IntVar(&payloadBudget, "budget", 0,
		"Summarization payload size cap in characters")
	compareCmd.Flags().StringVar(&template, "template", "",
		"Instruction template with {placeholder} substitutions")
	compareCmd.Flags().StringVar(&pathFilter, "path", "",
		"Only count file changes matching this glob (e.g. 'src/**/*.go')")
	compareCmd.Flags().DurationVar(&deadline, "deadline", 0,
		"Overall comparison deadline (e.g. 90s)")
	compareCmd.Flags().BoolVar(&summarize, "summarize", false,
		"Generate an AI summary of the comparison")
	compareCmd.Flags().BoolVar(&showFiles, "files", false,
		"Print the per-commit file lists")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(_ *cobra.Command, args []string) error {
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

	opts := compareOptions(cfg)
	result, err := svc.CompareTags(ctx, repo, args[1], args[2], opts)
	if err != nil {
		return err
	}

	printComparison(result)

	if summarize {
		summary, sumErr := svc.Summarize(ctx, result, opts)
		if sumErr != nil {
			return sumErr
		}
		color.New(color.FgGreen).Add(color.Underline).Println("Summary of changes")
		fmt.Println(summary)
	}

	return nil
}

// compareOptions merges config defaults with the command flags; flags win
// when set.
func compareOptions(cfg *config.Config) application.CompareOptions {
	opts := application.CompareOptions{
		CommitLimit:         cfg.Compare.CommitLimit,
		Concurrency:         cfg.Compare.Concurrency,
		RetryAttempts:       cfg.Compare.RetryAttempts,
		PayloadBudget:       cfg.Compare.PayloadBudget,
		InstructionTemplate: cfg.Compare.InstructionTemplate,
		PathFilter:          cfg.Compare.PathFilter,
		Deadline:            cfg.Compare.Deadline.Value(),
	}
	if commitLimit >= 0 {
		opts.CommitLimit = commitLimit
	}
	if concurrency > 0 {
		opts.Concurrency = concurrency
	}
	if retryAttempts > 0 {
		opts.RetryAttempts = retryAttempts
	}
	if payloadBudget > 0 {
		opts.PayloadBudget = payloadBudget
	}
	if template != "" {
		opts.InstructionTemplate = template
	}
	if pathFilter != "" {
		opts.PathFilter = pathFilter
	}
	if deadline > 0 {
		opts.Deadline = deadline
	}
	return opts
}

func printComparison(result *domain.ComparisonResult) {
	color.Green("Compared %s..%s in %s",
		result.Tags.Base, result.Tags.Head, result.Repo.FullName())
	color.Yellow("%d commits, %d files touched, +%d/-%d",
		len(result.Commits), result.FilesTouched, result.Additions, result.Deletions)

	if result.TimedOut {
		color.Red("Deadline expired: result is partial")
	}
	if len(result.FailedCommits) > 0 {
		color.Red("%d commits failed detail retrieval", len(result.FailedCommits))
	}

	for _, commit := range result.Commits {
		if commit.Failed() {
			color.Red("  %s %s [%s]", commit.ShortSHA(), commit.Subject, commit.FetchError)
			continue
		}
		fmt.Printf("  %s %s (+%d/-%d)\n",
			commit.ShortSHA(), commit.Subject, commit.Additions, commit.Deletions)
		if showFiles {
			for _, file := range commit.Files {
				fmt.Printf("      %-8s %s\n", file.Kind, file.Path)
			}
		}
	}
}
