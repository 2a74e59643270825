// Package api implements the mtslab HTTP API.
// It serves the test library, the calculator and the trend explorer over a
// registry that can be reloaded from its configured source.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/mtslab/mtslab/internal/logging"
	"github.com/mtslab/mtslab/internal/store"
	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
)

// Options configure a Handler.
type Options struct {
	// Source is consulted on reload. A nil source makes reload fail.
	Source         *store.Source
	Explore        explore.Options
	APIKey         string
	ChartCacheSize int
}

// Handler is the top-level API handler for the mtslab service.
type Handler struct {
	reg    atomic.Pointer[library.Registry]
	source *store.Source
	opts   explore.Options
	apiKey string
	charts *ChartCache
	log    *log.Logger
}

// NewHandler creates a new API handler serving reg.
func NewHandler(reg *library.Registry, o Options) *Handler {
	if o.Explore.MaxCount == 0 {
		o.Explore = explore.DefaultOptions()
	}
	h := &Handler{
		source: o.Source,
		opts:   o.Explore,
		apiKey: o.APIKey,
		charts: NewChartCache(o.ChartCacheSize),
		log:    logging.Logger(logging.SourceAPI),
	}
	h.reg.Store(reg)
	return h
}

// Registry returns the registry currently being served.
func (h *Handler) Registry() *library.Registry {
	return h.reg.Load()
}

// Reload fetches the library from the configured source and swaps it in.
// On failure the current registry keeps serving.
func (h *Handler) Reload(ctx context.Context) (*library.Registry, error) {
	if h.source == nil {
		return nil, errors.New("no library source configured")
	}
	reg, err := h.source.LoadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	h.reg.Store(reg)
	h.charts.Purge()
	h.log.Info("library reloaded", "source", h.source.Describe(), "tests", reg.Len())
	return reg, nil
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)

	// Library
	mux.HandleFunc("GET /api/tests", h.handleListTests)
	mux.HandleFunc("GET /api/tests/{testID}", h.handleGetTest)
	mux.HandleFunc("GET /api/tests/{testID}/card", h.handleCard)
	mux.HandleFunc("GET /api/tests/{testID}/voltage", h.handleVoltage)
	mux.HandleFunc("GET /api/criteria", h.handleListCriteria)

	// Calculator and explorer
	mux.HandleFunc("POST /api/evaluate", h.handleEvaluate)
	mux.HandleFunc("POST /api/explore", h.handleExplore)
	mux.HandleFunc("GET /api/criteria/{criterionID}/simulate", h.handleSimulate)
	mux.HandleFunc("GET /api/criteria/{criterionID}/chart", h.handleChart)

	// Write endpoints (auth-protected)
	mux.Handle("POST /api/library/reload", APIKeyAuth(h.apiKey)(http.HandlerFunc(h.handleReload)))
}

// Routes returns the full middleware-wrapped handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return RequestID(Logging(CORS(mux)))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tests": h.Registry().Len()})
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	reg, err := h.Reload(r.Context())
	if err != nil {
		var verr *library.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "library document is invalid",
				"issues": verr.Issues,
			})
			return
		}
		writeError(w, http.StatusBadGateway, fmt.Sprintf("reload failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "tests": reg.Len()})
}

// writeJSON encodes before writing the header so an unencodable value
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		logging.Logger(logging.SourceAPI).Error("encoding response", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "response could not be encoded"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
