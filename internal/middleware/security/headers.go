package security

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Directive is one Content-Security-Policy directive and its sources.
type Directive struct {
	Name    string
	Sources []string
}

// HeadersConfig describes the response headers added to every page.
type HeadersConfig struct {
	Policy []Directive

	// HSTS is sent only on TLS requests; zero disables it.
	HSTS              time.Duration
	HSTSSubdomains    bool
	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string
	CrossOrigin       string
}

// DefaultHeadersConfig allows the page to load its own stylesheet and
// inline SVG, and nothing else.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		Policy: []Directive{
			{"default-src", []string{"'self'"}},
			{"style-src", []string{"'self'"}},
			{"img-src", []string{"'self'", "data:"}},
			{"object-src", []string{"'none'"}},
			{"frame-ancestors", []string{"'none'"}},
			{"base-uri", []string{"'self'"}},
			{"form-action", []string{"'self'"}},
		},
		HSTS:              365 * 24 * time.Hour,
		HSTSSubdomains:    true,
		FrameOptions:      "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOrigin:       "same-origin",
	}
}

func (c HeadersConfig) policy() string {
	parts := make([]string, 0, len(c.Policy))
	for _, d := range c.Policy {
		parts = append(parts, strings.TrimSpace(d.Name+" "+strings.Join(d.Sources, " ")))
	}
	return strings.Join(parts, "; ")
}

func (c HeadersConfig) hsts() string {
	if c.HSTS <= 0 {
		return ""
	}
	v := "max-age=" + strconv.FormatInt(int64(c.HSTS/time.Second), 10)
	if c.HSTSSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

// HeadersMiddleware writes a fixed header set computed once from its config.
type HeadersMiddleware struct {
	fixed http.Header
	hsts  string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	fixed := http.Header{}
	add := func(k, v string) {
		if v != "" {
			fixed.Set(k, v)
		}
	}
	add("X-Content-Type-Options", "nosniff")
	add("X-Frame-Options", cfg.FrameOptions)
	add("Content-Security-Policy", cfg.policy())
	add("Referrer-Policy", cfg.ReferrerPolicy)
	add("Permissions-Policy", cfg.PermissionsPolicy)
	add("Cross-Origin-Opener-Policy", cfg.CrossOrigin)
	add("Cross-Origin-Resource-Policy", cfg.CrossOrigin)
	return &HeadersMiddleware{fixed: fixed, hsts: cfg.hsts()}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range h.fixed {
			dst[k] = v
		}
		if r.TLS != nil && h.hsts != "" {
			dst.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware marks responses as cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(maxAge) + ", immutable"
	return func(next http.Handler) http.Handler {
		if maxAge <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
