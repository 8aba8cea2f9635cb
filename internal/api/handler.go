package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"irrigation-status-backend/internal/controller"
	"irrigation-status-backend/internal/schedule"
	"irrigation-status-backend/internal/status"
	"irrigation-status-backend/internal/store"
)

// Views exposes the latest rendered state.
type Views interface {
	Schedule() schedule.View
	Status() status.Snapshot
	Countdowns() map[string]string
}

// Poster runs callbacks on the controllers' event loop.
type Poster interface {
	Post(fn func())
}

// Navigator moves the schedule view. Called on the event loop.
type Navigator interface {
	Refresh()
	Prev()
	Today()
	Next()
}

// Poller triggers an immediate status poll. Called on the event loop.
type Poller interface {
	Poll()
}

// CountdownStarter starts and cancels countdown widgets. Called on the event loop.
type CountdownStarter interface {
	Start(id string, remaining float64)
	Stop(id string)
}

// ActionSender forwards control actions to the irrigation controller.
type ActionSender interface {
	Action(ctx context.Context, a controller.Action) error
}

// Deps are the collaborators of the API handlers.
type Deps struct {
	Store      store.Store
	WebPush    *webpush.Options
	Views      Views
	Loop       Poster
	Schedule   Navigator
	Status     Poller
	Countdowns CountdownStarter
	Controller ActionSender
	// ManualMode allows station on/off actions.
	ManualMode bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	webpush    *webpush.Options
	views      Views
	loop       Poster
	schedule   Navigator
	status     Poller
	countdowns CountdownStarter
	controller ActionSender
	manualMode bool
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		store:      deps.Store,
		webpush:    deps.WebPush,
		views:      deps.Views,
		loop:       deps.Loop,
		schedule:   deps.Schedule,
		status:     deps.Status,
		countdowns: deps.Countdowns,
		controller: deps.Controller,
		manualMode: deps.ManualMode,
	}
}
