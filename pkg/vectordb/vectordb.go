// Package vectordb abstracts the document store the RAG pipeline searches.
//
// The gateway treats similarity search as an external collaborator: the
// backend owns embedding and relevance ordering, the caller never re-ranks.
package vectordb

import "context"

// Document is one stored text chunk with optional metadata.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
}

// Backend is a similarity-searchable document store.
type Backend interface {
	// Query returns the topK most similar documents for the query text,
	// most relevant first.
	Query(ctx context.Context, query string, topK int) ([]Document, error)

	// Add stores documents with their embeddings.
	Add(ctx context.Context, docs []Document) error

	// List returns up to limit stored documents plus the total count in
	// the collection.
	List(ctx context.Context, limit int) ([]Document, int, error)
}
