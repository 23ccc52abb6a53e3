package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/MaxainNN/gpt/pkg/apierr"
	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/vectordb"
)

const (
	// contentPreviewLength bounds document text in listing responses.
	contentPreviewLength = 500

	// maxChunkRunes bounds one ingested chunk.
	maxChunkRunes = 1500
)

// DocumentInfo describes one stored document for listing responses.
type DocumentInfo struct {
	ID      string                 `json:"id"`
	Content string                 `json:"content"`
	Meta    map[string]interface{} `json:"metadata,omitempty"`
}

// DocumentList is the result of listing the collection.
type DocumentList struct {
	Documents  []DocumentInfo `json:"documents"`
	TotalCount int            `json:"totalCount"`
	Collection string         `json:"collectionName"`
}

// DocumentService loads text documents into the vector store and lists them.
// Ingestion is confined to the configured root directory.
type DocumentService struct {
	store      vectordb.Backend
	collection string
	root       string
}

// NewDocumentService creates a DocumentService; collection is only used to
// label listing responses, root confines Load patterns.
func NewDocumentService(store vectordb.Backend, collection, root string) *DocumentService {
	return &DocumentService{store: store, collection: collection, root: root}
}

// Load reads every file matching the glob pattern, splits the contents into
// chunks, and adds them to the vector store. Returns the number of chunks
// stored. The pattern is resolved relative to the documents root; patterns
// or matches escaping the root are rejected.
func (s *DocumentService) Load(ctx context.Context, pattern string) (int, error) {
	resolved, err := s.resolvePattern(pattern)
	if err != nil {
		return 0, err
	}
	paths, err := filepath.Glob(resolved)
	if err != nil {
		return 0, apierr.Validationf("Invalid document pattern %q: %v", pattern, err)
	}

	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve documents root %s: %w", s.root, err)
	}

	var docs []vectordb.Document
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil || !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
			return 0, apierr.Validationf("Document pattern %q matches files outside the documents root", pattern)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("failed to read document %s: %w", path, err)
		}
		logging.Infof("Loading document: %s", filepath.Base(path))
		for _, chunk := range splitChunks(string(data)) {
			docs = append(docs, vectordb.Document{
				ID:   uuid.NewString(),
				Text: chunk,
				Metadata: map[string]interface{}{
					"source": filepath.Base(path),
				},
			})
		}
	}

	if len(docs) == 0 {
		logging.Warnf("No document chunks matched pattern %q", pattern)
		return 0, nil
	}
	if err := s.store.Add(ctx, docs); err != nil {
		return 0, err
	}
	logging.Infof("Loaded %d document chunks into vector store", len(docs))
	return len(docs), nil
}

// resolvePattern anchors a client-supplied glob inside the documents root.
func (s *DocumentService) resolvePattern(pattern string) (string, error) {
	if filepath.IsAbs(pattern) {
		return "", apierr.Validationf("Document pattern must be relative to the documents root")
	}
	cleaned := filepath.Clean(pattern)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", apierr.Validationf("Document pattern must not escape the documents root")
	}
	return filepath.Join(s.root, cleaned), nil
}

// List returns stored documents with truncated previews plus the total count.
func (s *DocumentService) List(ctx context.Context, limit int) (*DocumentList, error) {
	docs, total, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, DocumentInfo{
			ID:      d.ID,
			Content: truncate(d.Text, contentPreviewLength),
			Meta:    d.Metadata,
		})
	}
	return &DocumentList{
		Documents:  infos,
		TotalCount: total,
		Collection: s.collection,
	}, nil
}

// splitChunks splits text on blank lines, packing paragraphs into chunks of
// at most maxChunkRunes. A single oversized paragraph is split hard.
func splitChunks(text string) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder
	currentRunes := 0

	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
		currentRunes = 0
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		runes := []rune(p)
		for len(runes) > maxChunkRunes {
			flush()
			chunks = append(chunks, string(runes[:maxChunkRunes]))
			runes = runes[maxChunkRunes:]
		}
		if currentRunes > 0 && currentRunes+len(runes) > maxChunkRunes {
			flush()
		}
		if currentRunes > 0 {
			current.WriteString("\n\n")
			currentRunes += 2
		}
		current.WriteString(string(runes))
		currentRunes += len(runes)
	}
	flush()
	return chunks
}

func truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}
