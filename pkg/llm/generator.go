// Package llm wraps the answer-generation collaborator behind a small
// interface so orchestrators and tests never touch the transport directly.
package llm

import (
	"context"

	"github.com/MaxainNN/gpt/pkg/memory"
)

// Generator produces an answer from a system instruction, prior conversation
// turns, and the user's text. Implementations own transport and model choice.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, userText string, priorTurns []memory.Message) (string, error)
}
