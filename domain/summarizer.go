package domain

import "context"

// Summarizer abstracts the text-generation service that turns a comparison
// payload into a prose summary. Treated as opaque: no retry or backoff
// logic lives behind this interface, failures are passed through.
type Summarizer interface {
	// Name returns the service identifier (e.g. "openai").
	Name() string

	// Summarize sends the payload text and returns the generated summary.
	Summarize(ctx context.Context, prompt string) (string, error)
}
