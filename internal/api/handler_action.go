package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"irrigation-status-backend/internal/controller"
)

// RainDelayCountdown is the countdown id started by a rain delay action.
const RainDelayCountdown = "rain_delay"

type actionRequest struct {
	SID             *int     `json:"sid"`
	SetTo           *int     `json:"set_to"`
	SetTime         *int     `json:"set_time"`
	Minutes         *int     `json:"minutes"`
	Seconds         *int     `json:"seconds"`
	LevelAdjustment *float64 `json:"level_adjustment"`
	RainBlock       *float64 `json:"rain_block"`
}

// toAction builds the controller action. minutes/seconds describe a manual run
// and are converted to set_time.
func (r actionRequest) toAction() (controller.Action, error) {
	if r.Minutes != nil || r.Seconds != nil {
		if r.SID == nil {
			return controller.Action{}, errors.New("sid is required for a manual run")
		}
		if r.SetTo != nil && *r.SetTo != 1 {
			return controller.Action{}, errors.New("minutes and seconds require set_to=1")
		}
		mm, ss := 0, 0
		if r.Minutes != nil {
			mm = *r.Minutes
		}
		if r.Seconds != nil {
			ss = *r.Seconds
		}
		return controller.ManualRun(*r.SID, mm, ss)
	}

	a := controller.Action{
		SID:             r.SID,
		SetTo:           r.SetTo,
		SetTime:         r.SetTime,
		LevelAdjustment: r.LevelAdjustment,
		RainBlock:       r.RainBlock,
	}
	return a, a.Validate()
}

// PostAction handles POST /api/action.
func (h *Handler) PostAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := req.toAction()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if action.SID != nil && !h.manualMode {
		c.JSON(http.StatusConflict, gin.H{"error": "station control requires manual mode"})
		return
	}

	if err := h.controller.Action(c.Request.Context(), action); err != nil {
		log.Printf("Error sending action %v: %v", action.Query().Encode(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.loop.Post(func() {
		if action.RainBlock != nil {
			// rain_block=0 cancels the delay.
			if *action.RainBlock > 0 {
				h.countdowns.Start(RainDelayCountdown, *action.RainBlock*3600)
			} else {
				h.countdowns.Stop(RainDelayCountdown)
			}
		}
		h.schedule.Refresh()
		h.status.Poll()
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}
