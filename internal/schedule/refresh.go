// Package schedule keeps the day timeline of the controller's runs up to date.
package schedule

import (
	"context"
	"log"
	"time"

	"irrigation-status-backend/config"
	"irrigation-status-backend/internal/clock"
	"irrigation-status-backend/internal/controller"
	"irrigation-status-backend/internal/loop"
	"irrigation-status-backend/internal/timeline"
)

// LogSource provides the controller's run log for a date.
type LogSource interface {
	FetchLog(ctx context.Context, date string) ([]controller.LogEntry, error)
}

// StationState answers which stations exist and which are running, from the latest status batch.
type StationState interface {
	StationIDs() []int
	IsOn(station int) bool
}

// Renderer receives every schedule view produced.
type Renderer interface {
	RenderSchedule(View)
}

// Board is the rendering target of the controller.
type Board interface {
	StationState
	Renderer
}

// View is one rendered schedule.
type View struct {
	Date      string           `json:"date"`
	DateLabel string           `json:"date_label"`
	IsToday   bool             `json:"is_today"`
	Rows      []timeline.Row   `json:"rows"`
	Legend    *timeline.Legend `json:"legend"`
	Error     string           `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Build lays out events for the viewed date as seen at now. When stations is empty
// the stations referenced by the events are shown. stationOn may be nil.
func Build(engine timeline.Engine, events []timeline.Event, stations []int, viewed, now time.Time, stationOn func(int) bool) View {
	isToday := clock.SameDay(viewed, now)
	frame := timeline.Frame{IsToday: isToday, NowMinutes: clock.MinutesSinceMidnight(now)}
	if len(stations) == 0 {
		stations = timeline.StationsOf(events)
	}
	day := engine.LayoutDay(stations, events, frame, stationOn)

	return View{
		Date:      clock.XSDate(viewed),
		DateLabel: clock.DateLabel(viewed, now),
		IsToday:   isToday,
		Rows:      day.Rows,
		Legend:    day.Legend,
		UpdatedAt: now,
	}
}

// Controller fetches, lays out and renders the viewed date, re-arming itself while
// today is shown. All methods must be called on the runner's loop.
type Controller struct {
	runner     loop.Runner
	clk        clock.Clock
	source     LogSource
	board      Board
	engine     timeline.Engine
	cfg        config.ScheduleConfig
	timeFormat string

	ctx    context.Context
	viewed time.Time
	timer  loop.Timer
	seq    uint64
	last   View
}

// New creates a controller viewing the device's current date.
func New(runner loop.Runner, clk clock.Clock, source LogSource, board Board, cfg config.ScheduleConfig, display config.DisplayConfig) *Controller {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Minute
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 10 * time.Second
	}
	return &Controller{
		runner: runner,
		clk:    clk,
		source: source,
		board:  board,
		engine: timeline.NewEngine(timeline.Options{
			VisibilityEpsilon: cfg.VisibilityEpsilon,
			MinWidth:          cfg.MinWidth,
		}),
		cfg:        cfg,
		timeFormat: display.TimeFormat,
		ctx:        context.Background(),
		viewed:     clock.StartOfDay(clk.Now()),
	}
}

// Start binds fetches to ctx and renders the first view.
func (c *Controller) Start(ctx context.Context) {
	c.ctx = ctx
	c.Refresh()
}

// Refresh re-fetches the viewed date. Any pending re-arm is cancelled, and a
// response to an earlier request that arrives later is dropped.
func (c *Controller) Refresh() {
	c.stopTimer()
	c.seq++
	seq := c.seq
	viewed := c.viewed
	ctx := c.ctx

	c.runner.Go(func() {
		entries, err := c.source.FetchLog(ctx, clock.XSDate(viewed))
		c.runner.Post(func() {
			c.complete(seq, viewed, entries, err)
		})
	})
}

// Prev moves the view one day back.
func (c *Controller) Prev() {
	c.viewed = c.viewed.AddDate(0, 0, -1)
	c.Refresh()
}

// Today moves the view to the device's current date.
func (c *Controller) Today() {
	c.viewed = clock.StartOfDay(c.clk.Now())
	c.Refresh()
}

// Next moves the view one day forward.
func (c *Controller) Next() {
	c.viewed = c.viewed.AddDate(0, 0, 1)
	c.Refresh()
}

// ViewedDate returns the viewed date as an xs:date.
func (c *Controller) ViewedDate() string {
	return clock.XSDate(c.viewed)
}

func (c *Controller) complete(seq uint64, viewed time.Time, entries []controller.LogEntry, err error) {
	if seq != c.seq {
		log.Printf("Dropping schedule response for %s: superseded", clock.XSDate(viewed))
		return
	}
	now := c.clk.Now()

	if err != nil {
		log.Printf("Error refreshing schedule for %s: %v", clock.XSDate(viewed), err)
		view := c.last
		if view.Date != clock.XSDate(viewed) {
			view = Build(c.engine, nil, c.board.StationIDs(), viewed, now, c.board.IsOn)
		}
		view.Error = err.Error()
		view.UpdatedAt = now
		c.board.RenderSchedule(view)
		c.arm(c.cfg.RetryInterval)
		return
	}

	events := Normalize(entries, clock.XSDate(viewed), c.timeFormat)
	view := Build(c.engine, events, c.board.StationIDs(), viewed, now, c.board.IsOn)
	c.last = view
	c.board.RenderSchedule(view)

	if view.IsToday {
		c.arm(c.cfg.RefreshInterval)
	}
}

func (c *Controller) arm(d time.Duration) {
	c.stopTimer()
	c.timer = c.runner.AfterFunc(d, c.Refresh)
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
