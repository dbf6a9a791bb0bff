package llm

import (
	"context"
)

// GenerateOptions carries the per-call sampling parameters. The extraction
// pipeline runs with low temperature and a bounded output length; zero values
// mean provider defaults.
type GenerateOptions struct {
	Temperature   float32
	MaxTokens     int
	StopSequences []string
}

// LLMClient is the narrow contract the pipeline consumes. Implementations must
// be safe for concurrent use. Failures surface as errors or empty strings,
// both handled by the caller's retry policy.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
