package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irrigation-status-backend/config"
	"irrigation-status-backend/internal/clock"
	"irrigation-status-backend/internal/controller"
	"irrigation-status-backend/internal/loop"
	"irrigation-status-backend/internal/timeline"
)

type fakeSource struct {
	byDate   map[string][]controller.LogEntry
	fallback []controller.LogEntry
	err      error
	calls    []string
	onFetch  func(date string)
}

func (f *fakeSource) FetchLog(_ context.Context, date string) ([]controller.LogEntry, error) {
	f.calls = append(f.calls, date)
	if f.onFetch != nil {
		hook := f.onFetch
		f.onFetch = nil
		hook(date)
	}
	if f.err != nil {
		return nil, f.err
	}
	if entries, ok := f.byDate[date]; ok {
		return entries, nil
	}
	return f.fallback, nil
}

type fakeBoard struct {
	stations []int
	on       map[int]bool
	views    []View
}

func (b *fakeBoard) StationIDs() []int { return b.stations }
func (b *fakeBoard) IsOn(station int) bool { return b.on[station] }
func (b *fakeBoard) RenderSchedule(v View) { b.views = append(b.views, v) }
func (b *fakeBoard) last() View { return b.views[len(b.views)-1] }

var scheduleNow = time.Date(2024, 6, 1, 10, 15, 0, 0, time.UTC)

func zoneA() controller.LogEntry {
	return controller.LogEntry{
		Station: 1, Start: "09:55:00", Duration: "00:30:00", Date: "2024-06-01",
		Program: json.RawMessage(`3`), ProgramName: "Zone A", Active: true,
	}
}

func newTestController(source *fakeSource, board *fakeBoard) (*Controller, *loop.Manual) {
	runner := loop.NewManual()
	cfg := config.ScheduleConfig{
		VisibilityEpsilon: 0.05,
		MinWidth:          0.05,
		RefreshInterval:   time.Minute,
		RetryInterval:     10 * time.Second,
	}
	c := New(runner, clock.NewFixed(scheduleNow), source, board, cfg, config.DisplayConfig{TimeFormat: "24h"})
	return c, runner
}

func TestController_RefreshToday(t *testing.T) {
	source := &fakeSource{fallback: []controller.LogEntry{zoneA()}}
	board := &fakeBoard{stations: []int{1, 2}, on: map[int]bool{1: true}}
	c, runner := newTestController(source, board)

	c.Start(context.Background())

	require.Len(t, board.views, 1)
	view := board.last()
	assert.Equal(t, "2024-06-01", view.Date)
	assert.Equal(t, "Sat, Jun 1", view.DateLabel)
	assert.True(t, view.IsToday)
	assert.Empty(t, view.Error)
	require.Len(t, view.Rows, 2)

	row := view.Rows[0]
	assert.Equal(t, 1, row.Station)
	require.Len(t, row.Ticks, timeline.TicksPerDay)
	require.Len(t, row.Ticks[9].Segments, 1)
	assert.InDelta(t, 55.0/60, row.Ticks[9].Segments[0].Left, 1e-9)
	require.Len(t, row.Ticks[10].Segments, 1)
	assert.InDelta(t, 0, row.Ticks[10].Segments[0].Left, 1e-9)
	assert.InDelta(t, 25.0/60, row.Ticks[10].Segments[0].Width, 1e-9)
	assert.Equal(t, "program4", row.Ticks[10].Segments[0].Category)
	assert.Equal(t, timeline.StateHistory, row.Ticks[10].Segments[0].State)
	assert.Equal(t, "Zone A: 09:55 for 30:00", row.Ticks[10].Segments[0].Tooltip)

	require.NotNil(t, row.Ticks[10].Now)
	assert.InDelta(t, 15.0/60, row.Ticks[10].Now.Left, 1e-9)
	assert.True(t, row.Ticks[10].Now.On)
	require.NotNil(t, view.Rows[1].Ticks[10].Now)
	assert.False(t, view.Rows[1].Ticks[10].Now.On)

	assert.Equal(t, []timeline.LegendEntry{{Label: "Zone A", Category: "program4"}}, view.Legend.Entries())

	pending := runner.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, time.Minute, pending[0].Delay)
}

func TestController_RearmsWhileToday(t *testing.T) {
	source := &fakeSource{fallback: []controller.LogEntry{zoneA()}}
	board := &fakeBoard{stations: []int{1}}
	c, runner := newTestController(source, board)
	c.Refresh()

	require.True(t, runner.FireNext())
	require.True(t, runner.FireNext())

	assert.Equal(t, []string{"2024-06-01", "2024-06-01", "2024-06-01"}, source.calls)
	assert.Len(t, board.views, 3)
	assert.Len(t, runner.Pending(), 1, "exactly one pending refresh")
}

func TestController_RefreshIsIdempotent(t *testing.T) {
	source := &fakeSource{fallback: []controller.LogEntry{zoneA()}}
	board := &fakeBoard{stations: []int{1, 2}}
	c, _ := newTestController(source, board)

	c.Refresh()
	c.Refresh()

	require.Len(t, board.views, 2)
	assert.Equal(t, board.views[0], board.views[1])
}

func TestController_NavigationCancelsTimer(t *testing.T) {
	source := &fakeSource{fallback: []controller.LogEntry{zoneA()}}
	board := &fakeBoard{stations: []int{1}}
	c, runner := newTestController(source, board)

	c.Refresh()
	require.Len(t, runner.Pending(), 1)

	c.Prev()
	assert.Equal(t, "2024-05-31", c.ViewedDate())
	assert.False(t, board.last().IsToday)
	assert.Equal(t, "Fri, May 31", board.last().DateLabel)
	assert.Empty(t, runner.Pending(), "no re-arm when not viewing today")

	c.Next()
	c.Next()
	assert.Equal(t, "2024-06-02", c.ViewedDate())
	assert.Empty(t, runner.Pending())

	c.Today()
	assert.Equal(t, "2024-06-01", c.ViewedDate())
	assert.True(t, board.last().IsToday)
	assert.Len(t, runner.Pending(), 1)

	assert.Equal(t, []string{"2024-06-01", "2024-05-31", "2024-06-01", "2024-06-02", "2024-06-01"}, source.calls)
}

func TestController_ErrorRearmsAtRetryInterval(t *testing.T) {
	source := &fakeSource{fallback: []controller.LogEntry{zoneA()}}
	board := &fakeBoard{stations: []int{1}}
	c, runner := newTestController(source, board)

	c.Refresh()
	source.err = errors.New("connection refused")
	require.True(t, runner.FireNext())

	view := board.last()
	assert.Equal(t, "connection refused", view.Error)
	assert.Equal(t, board.views[0].Rows, view.Rows, "last good rows are kept")
	pending := runner.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 10*time.Second, pending[0].Delay)

	// Errors retry even when another day is shown.
	c.Next()
	assert.Equal(t, "connection refused", board.last().Error)
	assert.Equal(t, "2024-06-02", board.last().Date)
	assert.Len(t, board.last().Rows, 1)
	require.Len(t, runner.Pending(), 1)
	assert.Equal(t, 10*time.Second, runner.Pending()[0].Delay)

	source.err = nil
	require.True(t, runner.FireNext())
	assert.Empty(t, board.last().Error)
	assert.Empty(t, runner.Pending())
}

func TestController_DropsSupersededResponse(t *testing.T) {
	source := &fakeSource{fallback: []controller.LogEntry{zoneA()}}
	board := &fakeBoard{stations: []int{1}}
	c, _ := newTestController(source, board)

	// Navigation lands while the first fetch is still in flight.
	source.onFetch = func(string) { c.Next() }
	c.Refresh()

	require.Len(t, board.views, 1)
	assert.Equal(t, "2024-06-02", board.last().Date)
	assert.Equal(t, "2024-06-02", c.ViewedDate())
}

func TestController_SuppressesPastScheduledRunsOnlyToday(t *testing.T) {
	scheduled := controller.LogEntry{
		Station: 1, Start: "08:00:00", Duration: "00:10:00",
		Program: json.RawMessage(`1`), ProgramName: "Morning",
	}
	source := &fakeSource{fallback: []controller.LogEntry{scheduled}}
	board := &fakeBoard{stations: []int{1}}
	c, _ := newTestController(source, board)

	c.Refresh()
	assert.Empty(t, board.last().Rows[0].Ticks[8].Segments)
	assert.Equal(t, 0, board.last().Legend.Len())

	c.Next()
	require.Len(t, board.last().Rows[0].Ticks[8].Segments, 1)
	assert.Equal(t, timeline.StateSchedule, board.last().Rows[0].Ticks[8].Segments[0].State)
}

func TestController_FallsBackToEventStations(t *testing.T) {
	entries := []controller.LogEntry{zoneA(), zoneA()}
	entries[1].Station = 5
	source := &fakeSource{fallback: entries}
	board := &fakeBoard{}
	c, _ := newTestController(source, board)

	c.Refresh()

	rows := board.last().Rows
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Station)
	assert.Equal(t, 5, rows[1].Station)
}

func TestBuild_OtherYearLabel(t *testing.T) {
	viewed := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	view := Build(timeline.NewEngine(timeline.DefaultOptions()), nil, []int{1}, viewed, scheduleNow, nil)

	assert.Equal(t, "Sun, Dec 31, 2023", view.DateLabel)
	assert.False(t, view.IsToday)
	for _, tick := range view.Rows[0].Ticks {
		assert.True(t, tick.Empty())
	}
}
