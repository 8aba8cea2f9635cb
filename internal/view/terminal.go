package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"irrigation-status-backend/internal/schedule"
	"irrigation-status-backend/internal/status"
	"irrigation-status-backend/internal/timeline"
)

var categoryColors = map[string]lipgloss.Color{
	"program0":              lipgloss.Color("39"),
	"program1":              lipgloss.Color("208"),
	"program2":              lipgloss.Color("34"),
	"program3":              lipgloss.Color("196"),
	"program4":              lipgloss.Color("129"),
	"program5":              lipgloss.Color("94"),
	"program6":              lipgloss.Color("205"),
	"program7":              lipgloss.Color("244"),
	"program8":              lipgloss.Color("142"),
	"program9":              lipgloss.Color("44"),
	timeline.CategoryManual: lipgloss.Color("226"),
}

var (
	dimColor    = lipgloss.Color("240")
	onColor     = lipgloss.Color("46")
	errorColor  = lipgloss.Color("196")
	headerStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	axisStyle   = lipgloss.NewStyle().Foreground(dimColor)
)

// Terminal renders views as styled text, one character cell per fraction of an hour.
type Terminal struct {
	cellsPerTick int
}

// NewTerminal creates a renderer drawing each hour with cellsPerTick characters (at least 2).
func NewTerminal(cellsPerTick int) *Terminal {
	if cellsPerTick < 2 {
		cellsPerTick = 2
	}
	return &Terminal{cellsPerTick: cellsPerTick}
}

// Schedule renders the day timeline with its header and legend.
func (t *Terminal) Schedule(v schedule.View) string {
	var b strings.Builder

	header := v.DateLabel
	if v.IsToday {
		header += " (today)"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	if v.Error != "" {
		b.WriteString(errorStyle.Render("error: " + v.Error))
		b.WriteString("\n")
	}

	b.WriteString(t.axis())
	b.WriteString("\n")
	for _, row := range v.Rows {
		b.WriteString(fmt.Sprintf("%3d ", row.Station))
		for _, tick := range row.Ticks {
			b.WriteString(t.tick(tick))
		}
		b.WriteString("\n")
	}

	if v.Legend != nil && v.Legend.Len() > 0 {
		parts := make([]string, 0, v.Legend.Len())
		for _, entry := range v.Legend.Entries() {
			style := lipgloss.NewStyle().Foreground(colorOf(entry.Category))
			parts = append(parts, style.Render("■ "+entry.Label))
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteString("\n")
	}
	return b.String()
}

// Status renders the status table.
func (t *Terminal) Status(s status.Snapshot) string {
	var b strings.Builder
	if s.Error != "" {
		b.WriteString(errorStyle.Render("error: " + s.Error))
		b.WriteString("\n")
	}
	for _, cell := range s.Cells {
		style := lipgloss.NewStyle()
		for _, class := range cell.Classes {
			switch class {
			case onClass:
				style = style.Foreground(onColor).Bold(true)
			case "strike":
				style = style.Strikethrough(true)
			}
		}
		b.WriteString(fmt.Sprintf("Station %-3d %s\n", cell.Station, style.Render(cell.Text)))
	}
	return b.String()
}

func (t *Terminal) axis() string {
	var b strings.Builder
	b.WriteString("    ")
	for hour := 0; hour < timeline.TicksPerDay; hour++ {
		b.WriteString(fmt.Sprintf("%-*d", t.cellsPerTick, hour))
	}
	return axisStyle.Render(b.String())
}

func (t *Terminal) tick(tick timeline.Tick) string {
	var b strings.Builder
	width := 1 / float64(t.cellsPerTick)

	for i := 0; i < t.cellsPerTick; i++ {
		from, to := float64(i)*width, float64(i+1)*width

		if tick.Now != nil && tick.Now.Left >= from && tick.Now.Left < to {
			color := dimColor
			if tick.Now.On {
				color = onColor
			}
			b.WriteString(lipgloss.NewStyle().Foreground(color).Bold(true).Render("│"))
			continue
		}

		seg, ok := covering(tick.Segments, from, to)
		if !ok {
			b.WriteString(axisStyle.Render("·"))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(colorOf(seg.Category)).Render(stateChar(seg.State)))
	}
	return b.String()
}

func covering(segments []timeline.Segment, from, to float64) (timeline.Segment, bool) {
	for _, seg := range segments {
		if seg.Left < to && seg.Left+seg.Width > from {
			return seg, true
		}
	}
	return timeline.Segment{}, false
}

func stateChar(state string) string {
	switch state {
	case timeline.StateHistory:
		return "█"
	case timeline.StateBlocked:
		return "╳"
	default:
		return "▒"
	}
}

func colorOf(category string) lipgloss.Color {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return dimColor
}
