package cmd

import (
	"go.uber.org/dig"

	"github.com/tagdelta/tagdelta/application"
	"github.com/tagdelta/tagdelta/config"
	"github.com/tagdelta/tagdelta/domain"
	providerPkg "github.com/tagdelta/tagdelta/infrastructure/provider"
	ghProv "github.com/tagdelta/tagdelta/infrastructure/provider/github"
	summarizerPkg "github.com/tagdelta/tagdelta/infrastructure/summarizer"
)

// injectCompareService wires the host registry, the summarizer, and the
// compare service through a DIG container.
func injectCompareService(cfg *config.Config) (*application.CompareService, error) {
	container := dig.New()

	providers := []interface{}{
		func() *config.Config { return cfg },
		buildHostRegistry,
		newHost,
		newSummarizer,
		application.NewCompareService,
	}
	for _, provide := range providers {
		if err := container.Provide(provide); err != nil {
			return nil, err
		}
	}

	var svc *application.CompareService
	if err := container.Invoke(func(s *application.CompareService) {
		svc = s
	}); err != nil {
		return nil, err
	}

	return svc, nil
}

func buildHostRegistry() *providerPkg.Registry {
	reg := providerPkg.NewRegistry()
	reg.Register("github", ghProv.New)
	return reg
}

func newHost(reg *providerPkg.Registry, cfg *config.Config) (domain.Host, error) {
	return reg.Get("github", cfg.GitHub.Token, cfg.GitHub.Host)
}

// newSummarizer returns a nil Summarizer when no credential is configured;
// comparisons still work, only summarization is unavailable.
func newSummarizer(cfg *config.Config) (domain.Summarizer, error) {
	if cfg.Summarizer.Token == "" {
		return nil, nil
	}
	return summarizerPkg.New(
		cfg.Summarizer.Type,
		cfg.Summarizer.Token,
		cfg.Summarizer.Model,
		cfg.Summarizer.MaxTokens,
	)
}
