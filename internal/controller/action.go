package controller

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Action is a fire-and-forget request to /action. Nil fields are not sent.
type Action struct {
	SID             *int     `json:"sid,omitempty"`
	SetTo           *int     `json:"set_to,omitempty"`
	SetTime         *int     `json:"set_time,omitempty"`
	LevelAdjustment *float64 `json:"level_adjustment,omitempty"`
	RainBlock       *float64 `json:"rain_block,omitempty"`
}

// ErrEmptyAction is returned when an action carries no parameters.
var ErrEmptyAction = errors.New("action has no parameters")

// ManualRun builds the action that switches a station on for minutes:seconds.
func ManualRun(sid, minutes, seconds int) (Action, error) {
	if minutes < 0 || seconds < 0 || seconds >= 60 {
		return Action{}, fmt.Errorf("timer values wrong: %d:%d", minutes, seconds)
	}
	on, secs := 1, minutes*60+seconds
	a := Action{SID: &sid, SetTo: &on, SetTime: &secs}
	return a, a.Validate()
}

// StopStation builds the action that switches a station off.
func StopStation(sid int) (Action, error) {
	off := 0
	a := Action{SID: &sid, SetTo: &off}
	return a, a.Validate()
}

// Validate checks the parameter combination before it reaches the controller.
func (a Action) Validate() error {
	if a.SID == nil && a.SetTo == nil && a.SetTime == nil && a.LevelAdjustment == nil && a.RainBlock == nil {
		return ErrEmptyAction
	}
	if a.SID != nil && *a.SID <= 0 {
		return fmt.Errorf("sid must be positive, got %d", *a.SID)
	}
	if a.SetTo != nil {
		if a.SID == nil {
			return errors.New("set_to requires sid")
		}
		if *a.SetTo != 0 && *a.SetTo != 1 {
			return fmt.Errorf("set_to must be 0 or 1, got %d", *a.SetTo)
		}
	}
	if a.SetTime != nil {
		if a.SetTo == nil || *a.SetTo != 1 {
			return errors.New("set_time requires set_to=1")
		}
		if *a.SetTime < 0 {
			return fmt.Errorf("set_time must not be negative, got %d", *a.SetTime)
		}
	}
	if a.LevelAdjustment != nil && *a.LevelAdjustment < 0 {
		return fmt.Errorf("level_adjustment must not be negative, got %v", *a.LevelAdjustment)
	}
	if a.RainBlock != nil && *a.RainBlock < 0 {
		return fmt.Errorf("rain_block must not be negative, got %v", *a.RainBlock)
	}
	return nil
}

// Query encodes the action as /action query parameters.
func (a Action) Query() url.Values {
	q := url.Values{}
	if a.SID != nil {
		q.Set("sid", strconv.Itoa(*a.SID))
	}
	if a.SetTo != nil {
		q.Set("set_to", strconv.Itoa(*a.SetTo))
	}
	if a.SetTime != nil {
		q.Set("set_time", strconv.Itoa(*a.SetTime))
	}
	if a.LevelAdjustment != nil {
		q.Set("level_adjustment", strconv.FormatFloat(*a.LevelAdjustment, 'f', -1, 64))
	}
	if a.RainBlock != nil {
		q.Set("rain_block", strconv.FormatFloat(*a.RainBlock, 'f', -1, 64))
	}
	return q
}
