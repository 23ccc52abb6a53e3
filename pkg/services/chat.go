package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/MaxainNN/gpt/pkg/apierr"
	"github.com/MaxainNN/gpt/pkg/llm"
	"github.com/MaxainNN/gpt/pkg/memory"
	"github.com/MaxainNN/gpt/pkg/screening"
)

// ChatService runs the conversational path with bounded per-conversation
// memory.
type ChatService struct {
	generator llm.Generator
	memory    *memory.ConversationMemory
	validator *screening.Validator
}

// NewChatService wires the chat pipeline.
func NewChatService(generator llm.Generator, convMemory *memory.ConversationMemory, validator *screening.Validator) *ChatService {
	return &ChatService{
		generator: generator,
		memory:    convMemory,
		validator: validator,
	}
}

// Chat validates the message, resolves the conversation id (a fresh UUID
// when none is supplied), generates an answer conditioned on the
// conversation's current window, then records the user message and the
// answer. On validation failure nothing is mutated and no external call is
// made.
func (s *ChatService) Chat(ctx context.Context, message, conversationID string) (string, string, error) {
	if err := s.validator.Validate(message); err != nil {
		return "", "", err
	}

	convID := conversationID
	if convID == "" {
		convID = uuid.NewString()
	}

	priorTurns := s.memory.Window(convID)
	answer, err := s.generator.Generate(ctx, chatSystemPrompt, message, priorTurns)
	if err != nil {
		return "", "", apierr.CollaboratorErr("answer generation failed", err)
	}

	s.memory.Append(convID, memory.RoleUser, message)
	s.memory.Append(convID, memory.RoleAssistant, answer)

	return answer, convID, nil
}
