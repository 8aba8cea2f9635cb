package status

import (
	"context"
	"log"
	"time"

	"irrigation-status-backend/config"
	"irrigation-status-backend/internal/clock"
	"irrigation-status-backend/internal/controller"
	"irrigation-status-backend/internal/loop"
)

// Source provides the live status batch.
type Source interface {
	FetchStatus(ctx context.Context) ([]controller.StationStatus, error)
}

// Renderer receives every status snapshot produced.
type Renderer interface {
	RenderStatus(Snapshot)
}

// Recorder persists a status batch and returns the stations whose program run just ended.
type Recorder interface {
	RecordStatus(ctx context.Context, now time.Time, batch []controller.StationStatus) ([]int64, error)
}

// Notifier is told about stations that finished watering.
type Notifier interface {
	Dispatch(stationID int64)
}

// Snapshot is one rendered status table.
type Snapshot struct {
	Cells []Cell `json:"cells"`
	// Interval is the delay until the next poll.
	Interval  time.Duration `json:"interval"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Poller polls the controller on a self-rescheduling timer: fast while any station
// is timing a program, slow otherwise. All methods must be called on the runner's loop.
type Poller struct {
	runner   loop.Runner
	clk      clock.Clock
	source   Source
	renderer Renderer
	cfg      config.StatusConfig

	recorder Recorder
	notifier Notifier

	// recording is set while a batch is being persisted; queued holds the
	// newest batch that arrived meanwhile.
	recording bool
	queued    *recordedBatch

	firstBatch func()

	ctx      context.Context
	timer    loop.Timer
	inFlight bool
	again    bool
	cells    []Cell
}

type recordedBatch struct {
	at    time.Time
	batch []controller.StationStatus
}

// NewPoller creates a poller. Non-positive intervals fall back to 1s fast, 30s slow,
// 1s initial delay and 5s retry.
func NewPoller(runner loop.Runner, clk clock.Clock, source Source, renderer Renderer, cfg config.StatusConfig) *Poller {
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = time.Second
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = 30 * time.Second
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	return &Poller{
		runner:   runner,
		clk:      clk,
		source:   source,
		renderer: renderer,
		cfg:      cfg,
		ctx:      context.Background(),
	}
}

// SetRecorder hands successful batches to r off the loop and dispatches the
// finished stations it reports to n. Writes never overlap. n may be nil.
func (p *Poller) SetRecorder(r Recorder, n Notifier) {
	p.recorder = r
	p.notifier = n
}

// OnFirstBatch registers fn to run once, on the loop, after the first batch has
// been rendered.
func (p *Poller) OnFirstBatch(fn func()) {
	p.firstBatch = fn
}

// Start binds fetches to ctx and arms the first poll after the initial delay.
func (p *Poller) Start(ctx context.Context) {
	p.ctx = ctx
	p.arm(p.cfg.InitialDelay)
}

// Poll fetches the status now. The pending timer is cancelled; a poll requested
// while one is in flight runs as soon as that one completes.
func (p *Poller) Poll() {
	p.stopTimer()
	if p.inFlight {
		p.again = true
		return
	}
	p.inFlight = true
	ctx := p.ctx

	p.runner.Go(func() {
		batch, err := p.source.FetchStatus(ctx)
		p.runner.Post(func() {
			p.complete(batch, err)
		})
	})
}

// Interval selects the next poll delay for a batch.
func (p *Poller) Interval(timing bool) time.Duration {
	if timing {
		return p.cfg.FastInterval
	}
	return p.cfg.SlowInterval
}

func (p *Poller) complete(batch []controller.StationStatus, err error) {
	p.inFlight = false
	now := p.clk.Now()

	var next time.Duration
	if err != nil {
		log.Printf("Error polling station status: %v", err)
		next = p.cfg.RetryInterval
		p.renderer.RenderStatus(Snapshot{Cells: p.cells, Interval: next, Error: err.Error(), UpdatedAt: now})
	} else {
		cells, timing := DeriveAll(batch)
		p.cells = cells
		next = p.Interval(timing)
		p.renderer.RenderStatus(Snapshot{Cells: cells, Interval: next, UpdatedAt: now})
		p.record(now, batch)
		if fn := p.firstBatch; fn != nil {
			p.firstBatch = nil
			fn()
		}
	}

	if p.again {
		p.again = false
		p.Poll()
		return
	}
	p.arm(next)
}

// record persists batches one at a time, oldest first. Batches that arrive while
// a write is running collapse into the newest one.
func (p *Poller) record(now time.Time, batch []controller.StationStatus) {
	if p.recorder == nil {
		return
	}
	if p.recording {
		p.queued = &recordedBatch{at: now, batch: batch}
		return
	}
	p.recording = true
	recorder, notifier, ctx := p.recorder, p.notifier, p.ctx

	p.runner.Go(func() {
		finished, err := recorder.RecordStatus(ctx, now, batch)
		if err != nil {
			log.Printf("Error recording station status: %v", err)
		} else if notifier != nil {
			for _, id := range finished {
				notifier.Dispatch(id)
			}
		}
		p.runner.Post(p.recorded)
	})
}

func (p *Poller) recorded() {
	p.recording = false
	if next := p.queued; next != nil {
		p.queued = nil
		p.record(next.at, next.batch)
	}
}

func (p *Poller) arm(d time.Duration) {
	p.stopTimer()
	p.timer = p.runner.AfterFunc(d, p.Poll)
}

func (p *Poller) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
