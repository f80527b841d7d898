package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/spektr-org/civiclens/engine"
	"github.com/spektr-org/civiclens/schema"
	"github.com/spektr-org/civiclens/source"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: w.Header().Get(RequestIDHeader)})
}

// ============================================================================
// DASHBOARD
// ============================================================================

// execute decodes the filter body and runs the engine. It writes the error
// response itself and returns nil on failure.
func (h *Handler) execute(w http.ResponseWriter, r *http.Request) *engine.Result {
	ctx := r.Context()
	requestID := RequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFilterBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "filter body too large")
			return nil
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return nil
	}

	spec, err := engine.DecodeFilterSpec(body)
	if err != nil {
		h.logger.InfoContext(ctx, "rejected filter body",
			"request_id", requestID,
			"error", err,
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	ds, err := h.data.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "datasets unavailable",
			"request_id", requestID,
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, "datasets unavailable")
		return nil
	}

	start := time.Now()
	opts := append([]engine.Option{engine.WithLogger(h.logger)}, h.options...)
	result := engine.Execute(ds, spec, opts...)
	h.metrics.ObserveExecute(time.Since(start), result.Filtered.Len())
	return result
}

// handleDashboard handles POST /api/dashboard.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if result := h.execute(w, r); result != nil {
		writeJSON(w, http.StatusOK, result)
	}
}

// handleDashboardText handles POST /api/dashboard/text.
func (h *Handler) handleDashboardText(w http.ResponseWriter, r *http.Request) {
	if result := h.execute(w, r); result != nil {
		writeJSON(w, http.StatusOK, engine.BuildText(result))
	}
}

// handleDashboardTables handles POST /api/dashboard/tables.
func (h *Handler) handleDashboardTables(w http.ResponseWriter, r *http.Request) {
	if result := h.execute(w, r); result != nil {
		writeJSON(w, http.StatusOK, engine.AnalyticsTables(result.Analytics))
	}
}

// ============================================================================
// METADATA
// ============================================================================

// handleOptions handles GET /api/options.
func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, err := h.data.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "datasets unavailable")
		return
	}
	writeJSON(w, http.StatusOK, engine.CollectFilterOptions(ds))
}

// handleSchema handles GET /api/schema.
func (h *Handler) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schema.All())
}

// handleReload handles POST /api/reload. A failed reload keeps serving the
// previous bundle and answers 502.
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.data.Reload(ctx); err != nil {
		h.logger.WarnContext(ctx, "reload failed",
			"request_id", RequestID(ctx),
			"error", err,
		)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.data.Info())
}

// handleHealth handles GET /healthz.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	info := h.data.Info()
	status := http.StatusOK
	if info.State == source.StateFailed.String() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, info)
}
