package security

import "net/http"

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP                 string
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
}

// DefaultHeadersConfig returns defaults for server-rendered pages without scripts
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'self'; " +
			"style-src 'self'; " +
			"img-src 'self' data:; " +
			"object-src 'none'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'",
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		set := func(k, v string) {
			if v != "" {
				header.Set(k, v)
			}
		}
		set("Content-Security-Policy", h.config.CSP)
		set("X-Frame-Options", h.config.XFrameOptions)
		set("X-Content-Type-Options", h.config.XContentTypeOptions)
		set("Referrer-Policy", h.config.ReferrerPolicy)
		set("Permissions-Policy", h.config.PermissionsPolicy)

		next.ServeHTTP(w, r)
	})
}
