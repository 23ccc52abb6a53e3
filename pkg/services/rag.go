// Package services holds the gateway's orchestrators: the RAG query path,
// the conversational chat path, and document ingestion. Each composes the
// validated input, the shared state packages, and the two external
// collaborators (similarity search and answer generation) behind one method.
package services

import (
	"context"
	"strings"

	"github.com/MaxainNN/gpt/pkg/apierr"
	"github.com/MaxainNN/gpt/pkg/cache"
	"github.com/MaxainNN/gpt/pkg/llm"
	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/screening"
	"github.com/MaxainNN/gpt/pkg/vectordb"
)

// RagService answers questions grounded in the document store.
type RagService struct {
	store     vectordb.Backend
	generator llm.Generator
	validator *screening.Validator
	cache     *cache.QueryCache
}

// NewRagService wires the RAG pipeline.
func NewRagService(store vectordb.Backend, generator llm.Generator, validator *screening.Validator, queryCache *cache.QueryCache) *RagService {
	return &RagService{
		store:     store,
		generator: generator,
		validator: validator,
		cache:     queryCache,
	}
}

// Query validates the question, then returns a cached or freshly computed
// answer: similarity search with TopK, document texts joined in search order,
// generation conditioned on the assembled context.
func (s *RagService) Query(ctx context.Context, question string) (string, error) {
	if err := s.validator.Validate(question); err != nil {
		return "", err
	}

	answer, cached, err := s.cache.GetOrCompute(question, func() (string, error) {
		return s.computeAnswer(ctx, question)
	})
	if err != nil {
		return "", err
	}
	if cached {
		logging.Debugf("RAG query served from cache")
	}
	return answer, nil
}

func (s *RagService) computeAnswer(ctx context.Context, question string) (string, error) {
	docs, err := s.store.Query(ctx, question, TopK)
	if err != nil {
		return "", apierr.CollaboratorErr("similarity search failed", err)
	}

	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.Text)
	}
	documentContext := strings.Join(texts, DocumentSeparator)
	if len(docs) == 0 {
		logging.Infof("RAG query found no documents, answering without context")
	}

	answer, err := s.generator.Generate(ctx, ragSystemPrompt(documentContext), question, nil)
	if err != nil {
		return "", apierr.CollaboratorErr("answer generation failed", err)
	}
	return answer, nil
}
