package apiserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MaxainNN/gpt/pkg/apierr"
	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/ratelimit"
	"github.com/MaxainNN/gpt/pkg/services"
)

// ChatService answers conversational messages.
type ChatService interface {
	Chat(ctx context.Context, message, conversationID string) (answer, convID string, err error)
}

// RagService answers questions grounded in the document store.
type RagService interface {
	Query(ctx context.Context, question string) (string, error)
}

// DocumentService manages the document store contents.
type DocumentService interface {
	Load(ctx context.Context, pattern string) (int, error)
	List(ctx context.Context, limit int) (*services.DocumentList, error)
}

// GatewayAPIServer serves the gateway's HTTP API.
type GatewayAPIServer struct {
	chat      ChatService
	rag       RagService
	documents DocumentService
	limiter   *ratelimit.TokenBucketLimiter
	apiKey    string
}

// maxRequestBodyBytes bounds request bodies well above the longest valid
// message so oversized inputs fail in validation, not in transport.
const maxRequestBodyBytes = 1 << 20

// defaultDocumentListLimit caps listing responses when the client does not
// pass a limit query parameter.
const defaultDocumentListLimit = 100

func (s *GatewayAPIServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeAPIError(w, r, apierr.Validationf("Malformed request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeAPIError(w, r, apierr.ValidationDetails("Validation failed", "message: must not be blank"))
		return
	}

	answer, convID, err := s.chat.Chat(r.Context(), req.Message, req.ConversationID)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, ChatResponse{Response: answer, ConversationID: convID})
}

func (s *GatewayAPIServer) handleRagQuery(w http.ResponseWriter, r *http.Request) {
	var req RagRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeAPIError(w, r, apierr.Validationf("Malformed request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeAPIError(w, r, apierr.ValidationDetails("Validation failed", "question: must not be blank"))
		return
	}
	if utf8.RuneCountInString(req.Question) > ragQuestionMaxLength {
		s.writeAPIError(w, r, apierr.ValidationDetails("Validation failed",
			fmt.Sprintf("question: length must not exceed %d characters", ragQuestionMaxLength)))
		return
	}

	answer, err := s.rag.Query(r.Context(), req.Question)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, RagResponse{Answer: answer})
}

func (s *GatewayAPIServer) handleRagLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeAPIError(w, r, apierr.Validationf("Malformed request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Pattern) == "" {
		s.writeAPIError(w, r, apierr.ValidationDetails("Validation failed", "pattern: must not be blank"))
		return
	}

	count, err := s.documents.Load(r.Context(), req.Pattern)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, LoadResponse{ChunksLoaded: count})
}

func (s *GatewayAPIServer) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := defaultDocumentListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeAPIError(w, r, apierr.Validationf("Invalid limit parameter: %q", raw))
			return
		}
		limit = parsed
	}

	list, err := s.documents.List(r.Context(), limit)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, list)
}

func (s *GatewayAPIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status": "healthy", "service": "llm-gateway"}`))
}

func (s *GatewayAPIServer) parseJSONRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func (s *GatewayAPIServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeAPIError maps a classified error onto the uniform error body.
// Internal failures are logged with their cause but never leak it.
func (s *GatewayAPIServer) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apierr.KindOf(err)
	status := statusForKind(kind)

	message := "An unexpected error occurred"
	var details []string
	if ae := apierr.AsError(err); ae != nil {
		message = ae.Message
		details = ae.Details
	}
	if status == http.StatusInternalServerError {
		logging.Errorf("Request to %s failed: %v", r.URL.Path, err)
		message = "An internal error occurred. Please try again later."
		details = nil
	}

	s.writeJSONResponse(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     kind.String(),
		Message:   message,
		Path:      r.URL.Path,
		Details:   details,
	})
}

func statusForKind(kind apierr.Kind) int {
	switch kind {
	case apierr.Authorization:
		return http.StatusUnauthorized
	case apierr.RateLimited:
		return http.StatusTooManyRequests
	case apierr.Validation, apierr.SafetyViolation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
