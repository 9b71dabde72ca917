package host

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server exposes the capability contract over HTTP.
type Server struct {
	http *http.Server
}

// NewServer wires the capability routes to the host engine.
func NewServer(h *Host, listenAddr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handler := NewHandler(h)
	handler.RegisterRoutes(router)

	s := &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{http: s}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
