package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irrigation-status-backend/internal/schedule"
	"irrigation-status-backend/internal/status"
	"irrigation-status-backend/internal/timeline"
)

func rowLine(t *testing.T, out string, prefix string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	require.Failf(t, "row not found", "no line starting with %q in\n%s", prefix, out)
	return ""
}

func TestTerminal_Schedule(t *testing.T) {
	legend := timeline.NewLegend()
	legend.Set("Zone A", "program4")

	ticks := make([]timeline.Tick, timeline.TicksPerDay)
	for h := range ticks {
		ticks[h] = timeline.Tick{Hour: h}
	}
	ticks[10].Segments = []timeline.Segment{{Left: 0, Width: 25.0 / 60, Category: "program4", State: timeline.StateHistory}}
	ticks[10].Now = &timeline.Marker{Left: 15.0 / 60, On: true}
	ticks[12].Segments = []timeline.Segment{{Left: 0.5, Width: 0.05, Category: "program4", State: timeline.StateBlocked}}

	v := schedule.View{
		DateLabel: "Sat, Jun 1",
		IsToday:   true,
		Rows:      []timeline.Row{{Station: 1, Ticks: ticks}},
		Legend:    legend,
	}

	out := NewTerminal(4).Schedule(v)

	assert.Contains(t, out, "Sat, Jun 1 (today)")
	assert.Contains(t, out, "Zone A")
	assert.NotContains(t, out, "error:")

	row := rowLine(t, out, "  1 ")
	assert.Equal(t, 1, strings.Count(row, "█"))
	assert.Equal(t, 1, strings.Count(row, "│"))
	assert.Equal(t, 1, strings.Count(row, "╳"))
	assert.Equal(t, timeline.TicksPerDay*4-3, strings.Count(row, "·"))
}

func TestTerminal_ScheduleError(t *testing.T) {
	out := NewTerminal(2).Schedule(schedule.View{DateLabel: "Fri, May 31", Error: "connection refused"})

	assert.Contains(t, out, "Fri, May 31")
	assert.NotContains(t, out, "(today)")
	assert.Contains(t, out, "error: connection refused")
}

func TestTerminal_Status(t *testing.T) {
	out := NewTerminal(2).Status(status.Snapshot{
		Cells: []status.Cell{
			{Station: 1, Text: "02:05", Classes: []string{"stationStatus", "station_on"}},
			{Station: 2, Text: "Master Off", Classes: []string{"stationStatus", "station_off", "master", "strike"}},
		},
		Error: "timeout",
	})

	assert.Contains(t, out, "error: timeout")
	assert.Contains(t, out, "Station 1")
	assert.Contains(t, out, "02:05")
	assert.Contains(t, out, "Master Off")
}
