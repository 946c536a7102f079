// Package summarizer holds the text-generation service implementations
// behind the domain.Summarizer interface.
package summarizer

import (
	"fmt"

	"github.com/tagdelta/tagdelta/domain"
	"github.com/tagdelta/tagdelta/infrastructure/summarizer/openai"
)

// New creates a summarizer by service name.
func New(service, apiKey, model string, maxTokens int) (domain.Summarizer, error) {
	switch service {
	case "", "openai":
		return openai.New(apiKey, model, maxTokens)
	default:
		return nil, fmt.Errorf("unknown summarizer service: %q", service)
	}
}
