package web

import "net/http"

// setCORSHeaders allows the request origin if it is allow-listed, otherwise
// the first allowed origin is sent so the list itself is never disclosed.
func setCORSHeaders(w http.ResponseWriter, r *http.Request, origins []string, methods string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", getAllowedOrigin(origins, r.Header.Get("Origin")))
	h.Set("Access-Control-Allow-Methods", methods)
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	h.Set("Access-Control-Max-Age", "86400")
}

func getAllowedOrigin(origins []string, origin string) string {
	for _, v := range origins {
		if v == origin {
			return origin
		}
	}

	if len(origins) > 0 {
		return origins[0]
	}

	return "*"
}

// corsMiddleware sets the CORS headers on every response and answers
// preflight requests.
func corsMiddleware(origins []string, methods string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setCORSHeaders(w, r, origins, methods)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
