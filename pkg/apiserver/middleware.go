package apiserver

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MaxainNN/gpt/pkg/apierr"
	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/observability/metrics"
)

// clientIdentity derives the rate limit key for a request. Behind a proxy
// the first X-Forwarded-For address identifies the caller; otherwise the
// connection peer does.
func clientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if identity := strings.TrimSpace(first); identity != "" {
			return identity
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// withAuth rejects requests without the configured API key. A disabled
// security config passes everything through.
func (s *GatewayAPIServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			logging.Warnf("Rejected request to %s: missing or invalid API key", r.URL.Path)
			s.writeAPIError(w, r, apierr.New(apierr.Authorization, "Invalid or missing API key"))
			return
		}
		next(w, r)
	}
}

// withRateLimit admits or rejects a request against the caller's token
// bucket and reports the remaining allowance on every response.
func (s *GatewayAPIServer) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next(w, r)
			return
		}
		identity := clientIdentity(r)
		decision := s.limiter.Allow(identity)
		w.Header().Set("X-Rate-Limit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if !decision.Allowed {
			metrics.RateLimitDenials.Inc()
			logging.Warnf("Rate limit exceeded for client %s on %s", identity, r.URL.Path)
			retryAfter := int(decision.RetryAfter / time.Second)
			if decision.RetryAfter%time.Second != 0 {
				retryAfter++
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			s.writeAPIError(w, r, apierr.RateLimitedErr(
				fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter),
				decision.RetryAfter,
			))
			return
		}
		next(w, r)
	}
}

// instrument records request count and latency per route.
func (s *GatewayAPIServer) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		metrics.RequestCount.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		metrics.RequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// guarded is the standard middleware chain for client-facing endpoints.
func (s *GatewayAPIServer) guarded(route string, next http.HandlerFunc) http.HandlerFunc {
	return s.instrument(route, s.withAuth(s.withRateLimit(next)))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap exposes the wrapped writer so http.ResponseController can reach
// optional interfaces (Flusher, ReaderFrom) through the recorder.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
