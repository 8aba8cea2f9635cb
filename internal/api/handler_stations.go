package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStations handles GET /api/stations.
func (h *Handler) GetStations(c *gin.Context) {
	stations, err := h.store.Stations(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stations"})
		return
	}
	c.JSON(http.StatusOK, stations)
}

type runResponse struct {
	StationID       int64     `json:"station_id"`
	Reason          string    `json:"reason"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	DurationSeconds int64     `json:"duration_seconds"`
}

// parseBound accepts an RFC3339 timestamp or a plain date.
func parseBound(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.Local)
}

// GetStationRuns handles GET /api/stations/{id}/runs?from=&to=. The range defaults
// to the last 24 hours.
func (h *Handler) GetStationRuns(c *gin.Context) {
	stationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || stationID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid station ID"})
		return
	}

	to := time.Now()
	from := to.Add(-24 * time.Hour)
	if raw := c.Query("from"); raw != "" {
		if from, err = parseBound(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from'. Use RFC3339 or YYYY-MM-DD."})
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = parseBound(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to'. Use RFC3339 or YYYY-MM-DD."})
			return
		}
	}
	if !from.Before(to) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "'from' must be before 'to'"})
		return
	}

	runs, err := h.store.RunsBetween(c.Request.Context(), stationID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve runs"})
		return
	}

	response := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		response = append(response, runResponse{
			StationID:       run.StationID,
			Reason:          run.Reason,
			PeriodStart:     run.PeriodStart,
			PeriodEnd:       run.PeriodEnd,
			DurationSeconds: int64(run.Duration().Seconds()),
		})
	}
	c.JSON(http.StatusOK, response)
}
