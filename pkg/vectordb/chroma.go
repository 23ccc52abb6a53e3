package vectordb

import (
	"context"
	"fmt"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	defaultef "github.com/amikos-tech/chroma-go/pkg/embeddings/default_ef"

	"github.com/MaxainNN/gpt/pkg/observability/logging"
)

// ChromaOptions configures the Chroma backend.
type ChromaOptions struct {
	Endpoint   string // Chroma server endpoint
	Tenant     string // Default tenant to use
	Database   string // Default database to use
	Collection string // Collection name
}

// Chroma is a Backend over a Chroma server, using the server-side default
// embedding function for both ingestion and query.
type Chroma struct {
	client     chroma.Client
	collection string
}

// NewChroma connects to the Chroma server and verifies it is reachable.
func NewChroma(options ChromaOptions) (*Chroma, error) {
	clientOptions := []chroma.ClientOption{
		chroma.WithBaseURL(options.Endpoint),
	}
	if options.Database != "" && options.Tenant != "" {
		clientOptions = append(clientOptions, chroma.WithDatabaseAndTenant(options.Database, options.Tenant))
	} else if options.Tenant != "" {
		clientOptions = append(clientOptions, chroma.WithTenant(options.Tenant))
	}
	c, err := chroma.NewHTTPClient(clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	v, err := c.GetVersion(context.Background())
	if err != nil {
		return nil, fmt.Errorf("chroma server unreachable at %s: %w", options.Endpoint, err)
	}
	logging.Infof("Connected to Chroma %s (collection %q)", v, options.Collection)
	return &Chroma{client: c, collection: options.Collection}, nil
}

// Query runs a similarity search and returns documents in the relevance
// order the server produced.
func (c *Chroma) Query(ctx context.Context, query string, topK int) ([]Document, error) {
	ef, closeef, err := defaultef.NewDefaultEmbeddingFunction()
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding function: %w", err)
	}
	// make sure to call this to ensure proper resource release
	defer closeEmbeddingFunction(closeef)

	coll, err := c.getCollection(ctx, ef)
	if err != nil {
		return nil, err
	}

	qr, err := coll.Query(ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %q: %w", c.collection, err)
	}

	groups := qr.GetDocumentsGroups()
	if len(groups) == 0 {
		return nil, nil
	}
	idGroups := qr.GetIDGroups()

	results := make([]Document, 0, len(groups[0]))
	for i, document := range groups[0] {
		doc := Document{Text: document.ContentString()}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			doc.ID = string(idGroups[0][i])
		}
		results = append(results, doc)
	}
	return results, nil
}

// Add stores documents, creating the collection on first use.
func (c *Chroma) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	ef, closeef, err := defaultef.NewDefaultEmbeddingFunction()
	if err != nil {
		return fmt.Errorf("failed to create embedding function: %w", err)
	}
	defer closeEmbeddingFunction(closeef)

	coll, err := c.getCollection(ctx, ef)
	if err != nil {
		return err
	}

	ids := make([]chroma.DocumentID, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = chroma.DocumentID(d.ID)
		texts[i] = d.Text
	}

	if err := coll.Add(ctx, chroma.WithIDs(ids...), chroma.WithTexts(texts...)); err != nil {
		return fmt.Errorf("failed to add %d documents to collection %q: %w", len(docs), c.collection, err)
	}
	logging.Infof("Added %d documents to collection %q", len(docs), c.collection)
	return nil
}

// List fetches up to limit stored documents plus the collection's total count.
func (c *Chroma) List(ctx context.Context, limit int) ([]Document, int, error) {
	ef, closeef, err := defaultef.NewDefaultEmbeddingFunction()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create embedding function: %w", err)
	}
	defer closeEmbeddingFunction(closeef)

	coll, err := c.getCollection(ctx, ef)
	if err != nil {
		return nil, 0, err
	}

	count, err := coll.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count collection %q: %w", c.collection, err)
	}

	gr, err := coll.Get(ctx, chroma.WithLimitGet(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get documents from collection %q: %w", c.collection, err)
	}

	docs := gr.GetDocuments()
	ids := gr.GetIDs()
	results := make([]Document, 0, len(docs))
	for i, document := range docs {
		doc := Document{Text: document.ContentString()}
		if i < len(ids) {
			doc.ID = string(ids[i])
		}
		results = append(results, doc)
	}
	return results, count, nil
}

// getCollection resolves the configured collection with the given embedding
// function, creating the collection if it does not exist yet.
func (c *Chroma) getCollection(ctx context.Context, ef embeddings.EmbeddingFunction) (chroma.Collection, error) {
	coll, err := c.client.GetOrCreateCollection(ctx, c.collection, chroma.WithEmbeddingFunctionCreate(ef))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve collection %q: %w", c.collection, err)
	}
	return coll, nil
}

func closeEmbeddingFunction(closeef func() error) {
	if err := closeef(); err != nil {
		logging.Warnf("Error closing default embedding function: %s", err)
	}
}
