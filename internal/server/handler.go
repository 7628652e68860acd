package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/searchlite/searchlite"
	"github.com/searchlite/searchlite/internal/server/l2cache"
	"github.com/searchlite/searchlite/pkg/logger"
)

// Handler serves the REST API over one engine instance.
type Handler struct {
	engine       *searchlite.Engine
	l2           *l2cache.Cache
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// NewHandler builds a Handler. l2 may be nil to disable the Redis result
// tier.
func NewHandler(engine *searchlite.Engine, l2 *l2cache.Cache, defaultLimit, maxResults int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxResults <= 0 {
		maxResults = 100
	}
	return &Handler{
		engine:       engine,
		l2:           l2,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "http-handler"),
	}
}

// Search handles GET /search?q=...&limit=...&fuzzy=...&snippets=...&ranker=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	opts := searchlite.DefaultSearchOptions()
	opts.MaxResults = h.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > h.maxResults {
			n = h.maxResults
		}
		opts.MaxResults = n
	}
	opts.FuzzyEnabled = r.URL.Query().Get("fuzzy") == "true"
	opts.GenerateSnippets = r.URL.Query().Get("snippets") == "true"
	opts.ExplainScores = r.URL.Query().Get("explain") == "true"
	if ranker := r.URL.Query().Get("ranker"); ranker != "" {
		opts.RankerName = ranker
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		opts.Offset = n
	}

	if opts.Offset > 0 {
		page := h.engine.SearchPaginated(q, opts)
		h.writeJSON(w, http.StatusOK, page)
		return
	}

	var results []searchlite.SearchResult
	if h.l2 != nil {
		var hit bool
		var err error
		results, hit, err = h.l2.GetOrCompute(r.Context(), q, opts, func() ([]searchlite.SearchResult, error) {
			return h.engine.Search(q, opts), nil
		})
		if err != nil {
			log.Error("search failed", "query", q, "error", err)
			h.writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		if hit {
			w.Header().Set("X-Cache", "hit")
		}
	} else {
		results = h.engine.Search(q, opts)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"total":   len(results),
		"results": results,
	})
}

// IndexDocument handles POST /documents with a JSON document body.
func (h *Handler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var doc searchlite.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid document body")
		return
	}
	if len(doc.Fields) == 0 {
		h.writeError(w, http.StatusBadRequest, "document has no fields")
		return
	}
	id := h.engine.IndexDocument(doc)
	if h.l2 != nil {
		h.l2.Invalidate(r.Context())
	}
	h.writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

// ListDocuments handles GET /documents?offset=&limit=.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = h.defaultLimit
	}
	docs := h.engine.GetDocuments(offset, limit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"offset":    offset,
		"count":     len(docs),
		"documents": docs,
	})
}

// DeleteDocument handles DELETE /documents/{id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	if !h.engine.DeleteDocument(id) {
		h.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if h.l2 != nil {
		h.l2.Invalidate(r.Context())
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UpdateDocument handles PUT /documents/{id}.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	var doc searchlite.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid document body")
		return
	}
	if !h.engine.UpdateDocument(id, doc) {
		h.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if h.l2 != nil {
		h.l2.Invalidate(r.Context())
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.GetStats())
}

// CacheStats handles GET /cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.GetCacheStats())
}

// ClearCache handles POST /cache/invalidate.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearCache()
	if h.l2 != nil {
		h.l2.Invalidate(r.Context())
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// SaveSnapshot handles POST /snapshot/save with {"path": "..."}.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	path, ok := h.snapshotPath(w, r)
	if !ok {
		return
	}
	if err := h.engine.SaveSnapshot(path); err != nil {
		h.writeError(w, http.StatusInternalServerError, "snapshot save failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "path": path})
}

// LoadSnapshot handles POST /snapshot/load with {"path": "..."}.
func (h *Handler) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	path, ok := h.snapshotPath(w, r)
	if !ok {
		return
	}
	if err := h.engine.LoadSnapshot(path); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "snapshot load failed")
		return
	}
	if h.l2 != nil {
		h.l2.Invalidate(r.Context())
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "path": path})
}

func (h *Handler) snapshotPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		h.writeError(w, http.StatusBadRequest, "body must be {\"path\": \"...\"}")
		return "", false
	}
	return body.Path, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
