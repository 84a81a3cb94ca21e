package mid

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/btnlabs/blockchain/foundation/web"
)

// Set of values advertised to browsers for cross origin calls.
const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization"
	corsMaxAge  = 10 * time.Minute
)

// Cors sets the Cross-Origin Resource Sharing headers for requests coming
// from one of the allowed origins. A "*" origin allows every origin.
// Preflight requests are answered here and never reach the handler.
func Cors(origins ...string) web.Middleware {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[strings.TrimSpace(origin)] = true
	}

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			origin := r.Header.Get("Origin")

			switch {
			case allowed["*"]:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			default:
				return handler(ctx, w, r)
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				return handler(ctx, w, r)
			}

			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(corsMaxAge.Seconds())))

			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		return h
	}

	return m
}
