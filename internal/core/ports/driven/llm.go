package driven

import "context"

// LLMService produces text completions for the answering step of the
// retrieval pipeline.
type LLMService interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string
}
