package schedule

import (
	"fmt"
	"log"

	"irrigation-status-backend/internal/clock"
	"irrigation-status-backend/internal/controller"
	"irrigation-status-backend/internal/parse"
	"irrigation-status-backend/internal/timeline"
)

// Normalize converts raw log records for requestedDate into layout events.
// Records that cannot be converted are logged and skipped.
func Normalize(entries []controller.LogEntry, requestedDate, timeFormat string) []timeline.Event {
	events := make([]timeline.Event, 0, len(entries))
	for i, entry := range entries {
		ev, err := normalizeEntry(entry, requestedDate, timeFormat)
		if err != nil {
			log.Printf("Skipping log record %d for station %d on %s: %v", i, entry.Station, requestedDate, err)
			continue
		}
		events = append(events, ev)
	}
	return events
}

func normalizeEntry(entry controller.LogEntry, requestedDate, timeFormat string) (timeline.Event, error) {
	startSecs, err := parse.Clock(entry.Start)
	if err != nil {
		return timeline.Event{}, fmt.Errorf("start: %w", err)
	}
	durationSecs, err := parse.Clock(entry.Duration)
	if err != nil {
		return timeline.Event{}, fmt.Errorf("duration: %w", err)
	}

	ev := timeline.Event{
		Station:     entry.Station,
		Start:       startSecs / 60,
		Duration:    durationSecs / 60,
		Date:        entry.Date,
		ProgramName: entry.ProgramName,
		Manual:      entry.IsManual(),
		Active:      entry.HasRun(),
		Blocked:     entry.BlockReason(),
	}

	if id, err := entry.ProgramID(); err == nil {
		ev.Program = id
	} else if !ev.Manual {
		return timeline.Event{}, err
	}

	// A run that began on an earlier day is placed before this day's midnight.
	if ev.Date != "" && ev.Date != requestedDate {
		ev.Start -= clock.MinutesPerDay
	}

	if ev.Blocked != "" {
		ev.Label = fmt.Sprintf("%s (blocked by %s)", clock.FormatStart(ev.Start, timeFormat), ev.Blocked)
	} else {
		ev.Label = fmt.Sprintf("%s for %s", clock.FormatStart(ev.Start, timeFormat), clock.FormatDuration(ev.Duration))
	}
	return ev, nil
}
