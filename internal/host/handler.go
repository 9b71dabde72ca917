package host

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roamnet/rover/internal/domain"
)

// Handler adapts the host engine to gin.
type Handler struct {
	host *Host
}

func NewHandler(h *Host) *Handler {
	return &Handler{host: h}
}

// RegisterRoutes binds the capability endpoints.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/ping", h.Ping)
	router.GET("/safe", h.Safe)
	router.GET("/residents", h.ListResidents)
	router.GET("/residents/count", h.CountResidents)
	router.POST("/residents", h.AddResident)
	router.DELETE("/residents/:id", h.RemoveResident)
	router.POST("/residents/:id/tag", h.TagResident)
	router.POST("/migrate", h.Migrate)
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"message": h.host.Ping()}})
}

func (h *Handler) Safe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"safe": h.host.Safe()}})
}

func (h *Handler) ListResidents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"ids": h.host.ResidentIDs()}})
}

func (h *Handler) CountResidents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"count": h.host.NumResidents()}})
}

func (h *Handler) AddResident(c *gin.Context) {
	var snap domain.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	h.host.AddResident(snap)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) RemoveResident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err := h.host.RemoveResident(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) TagResident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	accepted, err := h.host.TagResident(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"accepted": accepted}})
}

func (h *Handler) Migrate(c *gin.Context) {
	var req domain.MigrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err := h.host.AcceptMigration(req); err != nil {
		status := http.StatusInternalServerError
		var noEntry domain.ErrNoSuchEntryPoint
		if errors.As(err, &noEntry) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
