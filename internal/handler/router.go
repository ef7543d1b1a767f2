package handler

import (
	"net/http"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// System endpoints
	mux.HandleFunc("/health", h.HandleHealthCheck)
	mux.Handle("/metrics", h.metrics.Handler())

	// API endpoints
	mux.HandleFunc("/api/build", h.HandleBuildReport)
}
