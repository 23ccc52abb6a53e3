package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MaxainNN/gpt/pkg/memory"
	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/observability/metrics"
)

// OpenAIGeneratorOptions configures the OpenAI-compatible chat client.
type OpenAIGeneratorOptions struct {
	Endpoint string // chat completion endpoint; empty means the platform default
	APIKey   string
	Model    string
}

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates a Generator for the configured endpoint/model.
func NewOpenAIGenerator(options OpenAIGeneratorOptions) *OpenAIGenerator {
	clientOptions := []option.RequestOption{}
	if options.Endpoint != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(options.Endpoint))
	}
	if options.APIKey != "" {
		clientOptions = append(clientOptions, option.WithAPIKey(options.APIKey))
	}
	c := openai.NewClient(clientOptions...)
	return &OpenAIGenerator{client: c, model: options.Model}
}

// Generate sends the system instruction, prior turns in order, and the user
// text as one chat completion request and returns the first choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, systemInstruction, userText string, priorTurns []memory.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(priorTurns)+2)
	if systemInstruction != "" {
		messages = append(messages, openai.SystemMessage(systemInstruction))
	}
	for _, turn := range priorTurns {
		switch turn.Role {
		case memory.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	messages = append(messages, openai.UserMessage(userText))

	logging.Debugf("Querying %q (%d prior turns)", g.model, len(priorTurns))
	start := time.Now()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	metrics.GenerationLatency.WithLabelValues("chat_completion").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("error calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
