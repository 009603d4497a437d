package router

import (
	"net/http"
	"strings"

	"CrudAPI/internal/config"
	"CrudAPI/internal/handler"
)

// corsPolicy is resolved once from config; the method list comes from the
// model operation table.
type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     parseOrigins(cfg.AllowOrigin),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(append(handler.Methods(), http.MethodOptions), ", "),
		headers:     strings.Join([]string{"Content-Type", "Authorization", "Accept-Language", requestIDHeader}, ", "),
	}
	if len(p.origins) == 0 {
		p.wildcard = true
	}
	for _, o := range p.origins {
		if o == "*" {
			p.wildcard = true
		}
	}
	return p
}

// withCORS adds CORS headers and answers preflight requests itself.
func withCORS(p corsPolicy, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		originValue, varyOrigin := p.allowOrigin(r.Header.Get("Origin"))
		if originValue != "" {
			w.Header().Set("Access-Control-Allow-Origin", originValue)
		}
		if varyOrigin {
			w.Header().Set("Vary", "Origin")
		}
		if p.credentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", p.methods)
		w.Header().Set("Access-Control-Allow-Headers", p.headers)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		h(w, r)
	}
}

// allowOrigin picks the Access-Control-Allow-Origin value for a request.
// A wildcard with credentials echoes the origin instead of "*".
func (p corsPolicy) allowOrigin(requestOrigin string) (value string, varyOrigin bool) {
	if p.wildcard {
		if p.credentials && requestOrigin != "" {
			return requestOrigin, true
		}
		return "*", false
	}
	if requestOrigin == "" {
		return "", true
	}
	for _, o := range p.origins {
		if o == requestOrigin {
			return requestOrigin, true
		}
	}
	return "", true
}

func parseOrigins(allowOrigin string) []string {
	parts := strings.Split(allowOrigin, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}
