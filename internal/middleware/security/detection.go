// Package security extracts client addresses, flags suspicious requests and
// sets protective response headers.
package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"
)

// DetectionMetrics counts what the detector has seen since start.
type DetectionMetrics struct {
	SuspiciousRequests int64 `json:"suspicious_requests"`
	InvalidIPAttempts  int64 `json:"invalid_ip_attempts"`
}

var (
	scanTokens = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
		"<script", "javascript:", "eval(", "union select",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner"}
)

const (
	maxURLLength   = 2048
	maxForwardHops = 5
)

// rule returns a short reason when the request looks hostile.
type rule func(r *http.Request) string

var rules = []rule{
	func(r *http.Request) string {
		switch r.Method {
		case "TRACE", "TRACK", "DEBUG", "CONNECT":
			return "method"
		}
		return ""
	},
	func(r *http.Request) string {
		if len(r.URL.String()) > maxURLLength {
			return "url_length"
		}
		return ""
	},
	func(r *http.Request) string {
		target := r.URL.Path
		if q, err := url.QueryUnescape(r.URL.RawQuery); err == nil {
			target += "?" + q
		} else {
			target += "?" + r.URL.RawQuery
		}
		if matchAny(target, scanTokens) {
			return "scan"
		}
		return ""
	},
	func(r *http.Request) string {
		if matchAny(r.UserAgent(), scannerAgents) {
			return "user_agent"
		}
		return ""
	},
	func(r *http.Request) string {
		if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > maxForwardHops {
			return "forward_chain"
		}
		return ""
	},
}

func matchAny(s string, tokens []string) bool {
	s = strings.ToLower(s)
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Detector flags suspicious requests and resolves client addresses behind
// trusted proxies.
type Detector struct {
	suspicious atomic.Int64
	invalidIP  atomic.Int64
	trusted    []netip.Prefix
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector() *Detector {
	d := &Detector{}
	for _, cidr := range []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "::1/128"} {
		d.trusted = append(d.trusted, netip.MustParsePrefix(cidr))
	}
	return d
}

// AddTrustedProxy adds a trusted proxy network. Not safe for use while
// requests are being served.
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trusted = append(d.trusted, p.Masked())
	return nil
}

func (d *Detector) reason(r *http.Request) string {
	for _, check := range rules {
		if why := check(r); why != "" {
			return why
		}
	}
	return ""
}

// DetectSuspiciousRequest reports whether the request matches a known scanner
// or attack pattern.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	if d.reason(r) == "" {
		return false
	}
	d.suspicious.Add(1)
	return true
}

// ExtractClientIP returns the peer address, or the address a trusted proxy
// forwarded for it.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		d.invalidIP.Add(1)
		return host
	}
	if !d.isTrusted(peer.Unmap()) {
		return host
	}

	candidates := []string{}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		candidates = append(candidates, xri)
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if _, err := netip.ParseAddr(c); err == nil {
			return c
		}
		d.invalidIP.Add(1)
	}
	return host
}

func (d *Detector) isTrusted(addr netip.Addr) bool {
	for _, p := range d.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIP.Load(),
	}
}

// Middleware logs suspicious requests. Requests are never blocked here.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if why := d.reason(r); why != "" {
			d.suspicious.Add(1)
			slog.WarnContext(r.Context(), "Suspicious request",
				"reason", why,
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", d.ExtractClientIP(r),
				"user_agent", r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}
