// Package gateway binds the three HTTP routes to the billing facade and the
// webhook signer and normalizes every outcome into a JSON envelope.
package gateway

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/billgate/alipay-bill-gateway/pkg/billing"
	"github.com/billgate/alipay-bill-gateway/pkg/signer"
)

// ServerConfig holds the dependencies for the HTTP gateway
type ServerConfig struct {
	Port    int
	Billing billing.Querier
	Signer  *signer.Signer
	Logger  *zap.Logger
}

// Server handles HTTP requests for the bill gateway
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a new server instance. Handlers share no mutable state;
// the billing querier and signer are read-only after construction.
func NewServer(cfg *ServerConfig) *Server {
	h := &handlers{
		billing: cfg.Billing,
		signer:  cfg.Signer,
		logger:  cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(requestLogger(cfg.Logger))

	// balance and account log answer any method, matching the original
	// gateway's behavior; /sign enforces POST itself so it can answer 405
	// with a JSON body
	r.HandleFunc("/balance", h.handleBalance)
	r.HandleFunc("/accountlog", h.handleAccountLog)
	r.HandleFunc("/sign", h.handleSign)

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: r,
		},
		logger: cfg.Logger,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// Handler returns the HTTP handler (for testing)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
