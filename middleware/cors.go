package middleware

import (
	"net/http"
	"slices"
	"strings"

	"usuarios-service/config"

	gorillaHandlers "github.com/gorilla/handlers"
)

const (
	corsAny                  = "*"
	corsRequestMethodHeader  = "Access-Control-Request-Method"
	corsRequestHeadersHeader = "Access-Control-Request-Headers"
)

var corsDefaultMethods = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

// CORS allows the configured origins with credentials. A "*" in the methods
// or headers list allows whatever the preflight asks for.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	anyMethod := slices.Contains(cfg.AllowedMethods, corsAny)
	anyHeader := slices.Contains(cfg.AllowedHeaders, corsAny)

	return func(next http.Handler) http.Handler {
		fixed := gorillaHandlers.CORS(corsOptions(cfg, nil, nil)...)(next)
		if !anyMethod && !anyHeader {
			return fixed
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var methods, headers []string
			if anyMethod {
				methods = append(methods, r.Method)
				if requested := r.Header.Get(corsRequestMethodHeader); requested != "" {
					methods = append(methods, requested)
				}
			}
			if anyHeader {
				headers = splitHeaderList(r.Header.Get(corsRequestHeadersHeader))
			}
			if len(methods) == 0 && len(headers) == 0 {
				fixed.ServeHTTP(w, r)
				return
			}
			gorillaHandlers.CORS(corsOptions(cfg, methods, headers)...)(next).ServeHTTP(w, r)
		})
	}
}

// corsOptions builds the gorilla options; extraMethods and extraHeaders are
// the values echoed from the current request when "*" is configured.
func corsOptions(cfg config.CORSConfig, extraMethods, extraHeaders []string) []gorillaHandlers.CORSOption {
	methods := withoutAny(cfg.AllowedMethods)
	if len(methods) == 0 {
		methods = append(methods, corsDefaultMethods...)
	}
	methods = append(methods, extraMethods...)

	headers := append(withoutAny(cfg.AllowedHeaders), "Content-Type", RequestIDHeader)
	headers = append(headers, extraHeaders...)

	return []gorillaHandlers.CORSOption{
		gorillaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods(methods),
		gorillaHandlers.AllowedHeaders(headers),
		gorillaHandlers.ExposedHeaders([]string{RequestIDHeader}),
		gorillaHandlers.AllowCredentials(),
	}
}

func splitHeaderList(value string) []string {
	var headers []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			headers = append(headers, trimmed)
		}
	}
	return headers
}

func withoutAny(values []string) []string {
	var out []string
	for _, v := range values {
		if v != corsAny {
			out = append(out, v)
		}
	}
	return out
}

