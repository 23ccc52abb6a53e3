package apiserver

import "time"

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ChatResponse is the reply to a chat request.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
}

// RagRequest is the body of POST /api/rag/query.
type RagRequest struct {
	Question string `json:"question"`
}

// RagResponse is the reply to a RAG query.
type RagResponse struct {
	Answer string `json:"answer"`
}

// LoadRequest is the body of POST /api/rag/load. Pattern is a filesystem
// glob selecting the documents to ingest.
type LoadRequest struct {
	Pattern string `json:"pattern"`
}

// LoadResponse reports how many chunks an ingestion stored.
type LoadResponse struct {
	ChunksLoaded int `json:"chunksLoaded"`
}

// ErrorResponse is the uniform error body for every failed request.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Details   []string  `json:"details,omitempty"`
}

// ragQuestionMaxLength bounds the question field before it even reaches the
// moderation layer. Questions are embedded into a prompt template, so they
// get a tighter cap than chat messages.
const ragQuestionMaxLength = 5000
