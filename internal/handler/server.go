package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/S1riyS/vaultfs/internal/config"
	"github.com/S1riyS/vaultfs/internal/middleware"
	"github.com/S1riyS/vaultfs/pkg/logging"
)

// NewServer wires the routes behind the request id and logger middleware.
func NewServer(cfg config.StatusConfig, h *Handler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.RequestIDMiddleware(mux),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return logging.MakeContextWithLogger(context.Background(), logger)
		},
	}
}
