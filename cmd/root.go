package cmd

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tagdelta/tagdelta/config"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	configPath    string
	tokenOverride string
	verbose       bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "tagdelta",
	Short: "Compare two tags of a GitHub repository and summarize the changes",
	Long: `A CLI tool that compares two tags in a GitHub repository, retrieves
the commit history and file-level changes between them, and produces an
AI-generated summary of what changed.

The comparison engine fetches commit details concurrently against the
rate-limited API, tolerates per-commit failures, and assembles a bounded
payload for the summarization service.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
		logger.SetFormatter(&logger.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect, falling back to env vars)")
	rootCmd.PersistentFlags().StringVar(&tokenOverride, "token", "",
		"GitHub token (overrides config and GITHUB_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}

// loadConfig resolves the effective configuration: an explicit file, an
// auto-detected file, or environment variables.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if tokenOverride != "" {
		// Keeps env-only configuration working when the token comes from
		// the flag alone.
		_ = os.Setenv("GITHUB_TOKEN", tokenOverride)
	}

	path := configPath
	if path == "" {
		path, _ = config.FindConfigFile()
	}

	if path != "" {
		logger.Debugf("Using config file: %s", path)
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if tokenOverride != "" {
		cfg.GitHub.Token = tokenOverride
	}

	return cfg, nil
}
