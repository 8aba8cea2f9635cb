// Package status polls the controller's live station status and derives what each station cell shows.
package status

import (
	"irrigation-status-backend/internal/clock"
	"irrigation-status-backend/internal/controller"
)

// Cell is the rendered state of one station.
type Cell struct {
	Station int      `json:"station"`
	Text    string   `json:"text"`
	Classes []string `json:"classes"`
	// Timing is set while a program is counting the station down, which needs fast polling.
	Timing bool `json:"timing"`
}

// Derive maps a status record onto its display text and classes.
func Derive(s controller.StationStatus) Cell {
	cell := Cell{
		Station: s.Station,
		Classes: []string{"stationStatus", "station_" + s.Status},
	}
	on := s.Status == controller.StatusOn

	switch s.Reason {
	case controller.ReasonProgram:
		cell.Timing = true
		if on {
			if s.Remaining < 0 {
				cell.Text = "On"
			} else {
				cell.Text = clock.FormatMMSS(s.Remaining)
			}
		}
	case controller.ReasonMaster:
		cell.Classes = append(cell.Classes, "master")
		if on {
			cell.Text = "Master On"
		} else {
			cell.Text = "Master Off"
			cell.Classes = append(cell.Classes, "strike")
		}
	case controller.ReasonRainDelay:
		cell.Text = "Rain Delay"
	case controller.ReasonRainSensed:
		cell.Text = "Rain Sensor"
	case controller.ReasonSystemOff:
		cell.Text = "Disabled"
	default:
		cell.Text = s.Status
	}
	return cell
}

// DeriveAll derives every record of a batch and reports whether any of them is timing.
func DeriveAll(batch []controller.StationStatus) ([]Cell, bool) {
	cells := make([]Cell, 0, len(batch))
	timing := false
	for _, s := range batch {
		cell := Derive(s)
		timing = timing || cell.Timing
		cells = append(cells, cell)
	}
	return cells, timing
}
