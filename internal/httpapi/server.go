package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Armin-kho/gold-live-rates/internal/logger"
)

// Server owns the listener for the router built by Handler.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

func NewServer(addr string, h *Handler, shutdownTimeout time.Duration) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h.SetupRoutes(),
			ReadHeaderTimeout: DefaultTimeout,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve accepts on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger.Infof("[http] listening on %s", ln.Addr())
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shCtx); err != nil {
			logger.Warnf("[http] shutdown: %v", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
