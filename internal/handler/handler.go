package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/S1riyS/vaultfs/internal/metrics"
	"github.com/S1riyS/vaultfs/internal/tree"
	"github.com/S1riyS/vaultfs/pkg/logging"
	"github.com/S1riyS/vaultfs/pkg/logging/slogext"
)

// Handler serves the status endpoints of a running mount. The build report
// is fixed for the lifetime of the process.
type Handler struct {
	report  *tree.BuildReport
	metrics *metrics.Metrics
}

func NewHandler(report *tree.BuildReport, m *metrics.Metrics) *Handler {
	return &Handler{report: report, metrics: m}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Nodes   int    `json:"nodes"`
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "ok"
	if h.report.Partial() {
		status = "degraded"
	}

	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  status,
		Service: "vaultfs",
		Nodes:   h.report.Nodes,
	})
}

func (h *Handler) HandleBuildReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, r, http.StatusOK, h.report)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	const op = "handler.writeJSON"

	body, err := json.Marshal(v)
	if err != nil {
		logger := logging.GetLoggerFromContextWithOp(r.Context(), op)
		logger.Error("Failed to encode response", slogext.Err(err), slog.String("path", r.URL.Path))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
