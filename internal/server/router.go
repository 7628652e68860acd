package server

import (
	"net/http"

	"github.com/searchlite/searchlite/pkg/health"
	"github.com/searchlite/searchlite/pkg/metrics"
)

// NewRouter wires all routes and applies the middleware chain.
//
// Route table:
//
//	GET    /search             → ranked query (offset param switches to pagination)
//	POST   /documents          → index one document
//	GET    /documents          → browse documents
//	PUT    /documents/{id}     → update in place
//	DELETE /documents/{id}     → delete
//	GET    /stats              → index statistics
//	GET    /cache/stats        → query-cache statistics
//	POST   /cache/invalidate   → clear both cache tiers
//	POST   /snapshot/save      → persist the engine to a file
//	POST   /snapshot/load      → replace the engine from a file
//	GET    /health/live        → liveness probe
//	GET    /health/ready       → readiness probe
//	GET    /metrics            → Prometheus scrape (when metrics enabled)
//
// Middleware chain (outermost first): RequestID → Logging → Metrics.
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("POST /documents", h.IndexDocument)
	mux.HandleFunc("GET /documents", h.ListDocuments)
	mux.HandleFunc("PUT /documents/{id}", h.UpdateDocument)
	mux.HandleFunc("DELETE /documents/{id}", h.DeleteDocument)
	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("GET /cache/stats", h.CacheStats)
	mux.HandleFunc("POST /cache/invalidate", h.ClearCache)
	mux.HandleFunc("POST /snapshot/save", h.SaveSnapshot)
	mux.HandleFunc("POST /snapshot/load", h.LoadSnapshot)

	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	var chain http.Handler = mux
	if m != nil {
		chain = Metrics(m)(chain)
	}
	chain = Logging(chain)
	chain = RequestID(chain)
	return chain
}
