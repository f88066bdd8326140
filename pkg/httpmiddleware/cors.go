package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. Empty or "*" allows any origin.
	AllowOrigins []string
	// AllowMethods defaults to DefaultCORSMethods.
	AllowMethods []string
	// AllowHeaders defaults to DefaultCORSHeaders.
	AllowHeaders []string
	// ExposeHeaders lists response headers readable by the browser.
	ExposeHeaders []string
	// AllowCredentials makes the middleware echo the request origin instead of "*".
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds. Zero omits the header.
	MaxAge int
}

var (
	DefaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	DefaultCORSHeaders = []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"}
)

// CORS handles cross-origin requests. Preflight requests are answered with
// 204 and never reach next.
func CORS(cfg CORSConfig) Middleware {
	allowAll := len(cfg.AllowOrigins) == 0
	allowed := make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[strings.ToLower(o)] = o
	}

	methods := strings.Join(orDefault(cfg.AllowMethods, DefaultCORSMethods), ", ")
	headers := strings.Join(orDefault(cfg.AllowHeaders, DefaultCORSHeaders), ", ")
	expose := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	// Credentials forbid the wildcard; echo the origin instead.
	wildcard := allowAll && !cfg.AllowCredentials

	allowOrigin := func(origin string) string {
		switch {
		case origin == "":
			if wildcard {
				return "*"
			}
			return ""
		case wildcard:
			return "*"
		case allowAll:
			return origin
		default:
			return allowed[strings.ToLower(origin)]
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !wildcard {
				h.Add("Vary", "Origin")
			}

			origin := allowOrigin(r.Header.Get("Origin"))
			if origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method != http.MethodOptions {
				if origin != "" && expose != "" {
					h.Set("Access-Control-Expose-Headers", expose)
				}
				next.ServeHTTP(w, r)
				return
			}

			if origin != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if maxAge != "" {
					h.Set("Access-Control-Max-Age", maxAge)
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
