package llm

import (
	"context"
)

// Client is the minimal surface the advisory gateway needs from a language
// model provider.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
