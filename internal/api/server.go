package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/chromabet/backend/internal/infra/metrics"
)

// NewServer creates and returns a configured *http.Server for the betting API.
func NewServer(port uint16, h *Handler, m *metrics.Metrics) *http.Server {
	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(h, m),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
