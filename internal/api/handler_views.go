package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSchedule handles GET /api/schedule.
func (h *Handler) GetSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, h.views.Schedule())
}

// NavigateSchedule returns the handler of POST /api/schedule/{prev,today,next}.
func (h *Handler) NavigateSchedule(move func(Navigator)) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.loop.Post(func() { move(h.schedule) })
		c.JSON(http.StatusAccepted, gin.H{"status": "refreshing"})
	}
}

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(c *gin.Context) {
	snapshot := h.views.Status()
	c.JSON(http.StatusOK, gin.H{
		"cells":       snapshot.Cells,
		"interval_ms": snapshot.Interval.Milliseconds(),
		"error":       snapshot.Error,
		"updated_at":  snapshot.UpdatedAt,
	})
}

// GetCountdowns handles GET /api/countdowns.
func (h *Handler) GetCountdowns(c *gin.Context) {
	c.JSON(http.StatusOK, h.views.Countdowns())
}

type startCountdownRequest struct {
	ID        string   `json:"id" binding:"required"`
	Remaining *float64 `json:"remaining" binding:"required"`
}

// StartCountdown handles POST /api/countdowns.
func (h *Handler) StartCountdown(c *gin.Context) {
	var req startCountdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if math.IsNaN(*req.Remaining) || math.IsInf(*req.Remaining, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "remaining must be a finite number"})
		return
	}

	id, remaining := req.ID, *req.Remaining
	h.loop.Post(func() { h.countdowns.Start(id, remaining) })
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}
