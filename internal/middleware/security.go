package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityConfig represents security headers configuration. APIPolicy is the
// Content-Security-Policy for JSON and image responses; DocumentPolicy applies
// to text/html responses such as printable QR cards.
type SecurityConfig struct {
	HSTS                  bool
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
	FrameOptions          string
	ReferrerPolicy        string
	APIPolicy             []string
	DocumentPolicy        []string
}

// DefaultSecurityConfig returns default security configuration
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTS:                  true,
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "no-referrer",
		APIPolicy: []string{
			"default-src 'none'",
			"frame-ancestors 'none'",
		},
		DocumentPolicy: []string{
			"default-src 'none'",
			"img-src data:",
			"style-src 'unsafe-inline'",
			"frame-ancestors 'none'",
		},
	}
}

// SecurityHeaders adds security headers to responses. The CSP is chosen from
// the response Content-Type when the headers are flushed.
func SecurityHeaders(config SecurityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// HSTS
		if config.HSTS && config.HSTSMaxAge > 0 {
			value := fmt.Sprintf("max-age=%d", int64(config.HSTSMaxAge/time.Second))
			if config.HSTSIncludeSubdomains {
				value += "; includeSubDomains"
			}
			c.Header("Strict-Transport-Security", value)
		}

		if config.FrameOptions != "" {
			c.Header("X-Frame-Options", config.FrameOptions)
		}
		c.Header("X-Content-Type-Options", "nosniff")
		if config.ReferrerPolicy != "" {
			c.Header("Referrer-Policy", config.ReferrerPolicy)
		}

		c.Writer = &policyWriter{ResponseWriter: c.Writer, config: config}
		c.Next()
	}
}

// policyWriter sets Content-Security-Policy just before the headers go out.
type policyWriter struct {
	gin.ResponseWriter
	config  SecurityConfig
	applied bool
}

func (w *policyWriter) applyPolicy() {
	if w.applied {
		return
	}
	w.applied = true

	h := w.Header()
	if h.Get("Content-Security-Policy") != "" {
		return
	}
	policy := w.config.APIPolicy
	if strings.HasPrefix(h.Get("Content-Type"), "text/html") {
		policy = w.config.DocumentPolicy
	}
	if len(policy) > 0 {
		h.Set("Content-Security-Policy", strings.Join(policy, "; "))
	}
}

func (w *policyWriter) WriteHeaderNow() {
	w.applyPolicy()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *policyWriter) Write(data []byte) (int, error) {
	w.applyPolicy()
	return w.ResponseWriter.Write(data)
}

func (w *policyWriter) WriteString(s string) (int, error) {
	w.applyPolicy()
	return w.ResponseWriter.WriteString(s)
}
