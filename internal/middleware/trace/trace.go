// Package trace tags every request with an ID and logs when it starts and
// finishes.
package trace

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "expenses/internal/log"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxInboundIDLength = 64

type requestIDKey struct{}

// Middleware assigns request IDs, logs each request and keeps latency totals.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.StructuredLogger

	requests atomic.Int64
	micros   atomic.Int64
}

type Metrics struct {
	TotalRequests       int64 `json:"total_requests"`
	AverageResponseTime int64 `json:"average_response_time_us"`
}

// NewMiddleware logs through logger, or the slog default when it is nil.
func NewMiddleware(extractIP func(*http.Request) string, logger *applog.Logger) *Middleware {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    applog.NewStructuredLogger(logger.WithComponent(applog.ComponentTrace)),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var clientIP string
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		id := inboundID(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = NewRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, id)

		m.logger.LogHTTPStart(ctx, r, clientIP)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		m.requests.Add(1)
		m.micros.Add(elapsed.Microseconds())
		m.logger.LogHTTPEnd(ctx, r, sw.status, elapsed.Milliseconds(), clientIP)
	})
}

// statusWriter remembers the first status code written.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.status = code
		sw.written = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.written = true
	return sw.ResponseWriter.Write(b)
}

// NewRequestID returns a fresh "req_"-prefixed identifier.
func NewRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// inboundID accepts a caller-supplied ID made of letters, digits, '-' and
// '_' only; anything else is replaced by a fresh ID.
func inboundID(id string) string {
	if id == "" || len(id) > maxInboundIDLength {
		return ""
	}
	for _, c := range id {
		ok := c == '-' || c == '_' ||
			(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !ok {
			return ""
		}
	}
	return id
}

// GetRequestID returns the ID stored by Middleware, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID is GetRequestID for a request, in the shape log.RequestIDMiddleware takes.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}

// GetMetrics returns the request count and mean latency in microseconds.
func (m *Middleware) GetMetrics() Metrics {
	total := m.requests.Load()
	var avg int64
	if total > 0 {
		avg = m.micros.Load() / total
	}
	return Metrics{TotalRequests: total, AverageResponseTime: avg}
}
