package registry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roamnet/rover/internal/domain"
)

// Server exposes the registry over HTTP.
type Server struct {
	http *http.Server
}

// NewServer wires the announce and find endpoints to the table.
func NewServer(table *Table, listenAddr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handler := &Handler{table: table}
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

func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler adapts the table to gin.
type Handler struct {
	table *Table
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/hosts", h.Announce)
	router.GET("/hosts", h.Find)
}

func (h *Handler) Announce(c *gin.Context) {
	var info domain.HostInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if info.ID == "" || info.Addr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "id and addr are required"})
		return
	}
	h.table.Announce(info)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Find(c *gin.Context) {
	max, err := strconv.Atoi(c.DefaultQuery("max", "8"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "max must be an integer"})
		return
	}
	hosts := h.table.Find(max)
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"hosts": hosts}})
}
