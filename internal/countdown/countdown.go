// Package countdown runs the HH:MM:SS countdown widgets shown next to running
// programs and delays.
package countdown

import (
	"log"
	"time"

	"irrigation-status-backend/config"
	"irrigation-status-backend/internal/clock"
	"irrigation-status-backend/internal/loop"
)

// Renderer displays countdown texts.
type Renderer interface {
	RenderCountdown(id, text string)
	ClearCountdown(id string)
}

type widget struct {
	remaining float64
	timer     loop.Timer
}

// Countdowns runs independent countdown widgets keyed by id. When one reaches zero
// the reload hook runs after the reload delay. All methods must be called on the
// runner's loop.
type Countdowns struct {
	runner      loop.Runner
	renderer    Renderer
	reload      func()
	tick        time.Duration
	reloadDelay time.Duration

	widgets     map[string]*widget
	expired     []string
	reloadTimer loop.Timer
}

// New creates the widget set. reload may be nil.
func New(runner loop.Runner, renderer Renderer, cfg config.CountdownConfig, reload func()) *Countdowns {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.ReloadDelay <= 0 {
		cfg.ReloadDelay = time.Second
	}
	return &Countdowns{
		runner:      runner,
		renderer:    renderer,
		reload:      reload,
		tick:        cfg.Tick,
		reloadDelay: cfg.ReloadDelay,
		widgets:     make(map[string]*widget),
	}
}

// Start renders id immediately and counts down from remaining seconds. Starting an
// id that is already running replaces it.
func (c *Countdowns) Start(id string, remaining float64) {
	if old, ok := c.widgets[id]; ok && old.timer != nil {
		old.timer.Stop()
	}
	w := &widget{remaining: remaining}
	c.widgets[id] = w
	c.step(id, w)
}

// Stop cancels id and removes its display.
func (c *Countdowns) Stop(id string) {
	w, ok := c.widgets[id]
	if !ok {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	delete(c.widgets, id)
	c.renderer.ClearCountdown(id)
}

// Running returns the number of widgets still counting.
func (c *Countdowns) Running() int {
	return len(c.widgets)
}

func (c *Countdowns) step(id string, w *widget) {
	if c.widgets[id] != w {
		return
	}

	h, m, s := clock.HMS(w.remaining)
	c.renderer.RenderCountdown(id, clock.FormatHMS(w.remaining))
	w.remaining--

	if h <= 0 && m <= 0 && s <= 0 {
		delete(c.widgets, id)
		w.timer = nil
		c.expired = append(c.expired, id)
		c.scheduleReload()
		return
	}
	w.timer = c.runner.AfterFunc(c.tick, func() { c.step(id, w) })
}

func (c *Countdowns) scheduleReload() {
	if c.reloadTimer != nil {
		return
	}
	c.reloadTimer = c.runner.AfterFunc(c.reloadDelay, c.fireReload)
}

func (c *Countdowns) fireReload() {
	c.reloadTimer = nil
	for _, id := range c.expired {
		if _, restarted := c.widgets[id]; !restarted {
			c.renderer.ClearCountdown(id)
		}
	}
	c.expired = nil

	log.Println("Countdown expired, reloading views.")
	if c.reload != nil {
		c.reload()
	}
}
