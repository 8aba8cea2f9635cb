package timeline

// Marker is the current-time indicator inside a tick.
type Marker struct {
	// Left is the position as a fraction of the tick.
	Left float64 `json:"left"`
	// On is set while the station is running.
	On bool `json:"on"`
}

// NowMarker returns the indicator for key, or nil when the viewed date is not
// today or now falls outside the tick.
func NowMarker(key TickKey, frame Frame, stationOn bool) *Marker {
	if !frame.IsToday {
		return nil
	}
	slice := key.Slice()
	if frame.NowMinutes < slice || frame.NowMinutes >= slice+TickMinutes {
		return nil
	}
	return &Marker{
		Left: (frame.NowMinutes - slice) / TickMinutes,
		On:   stationOn,
	}
}
