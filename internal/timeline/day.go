package timeline

import "sort"

// Tick is the rendered content of one hour column.
type Tick struct {
	Hour     int       `json:"hour"`
	Segments []Segment `json:"segments,omitempty"`
	Now      *Marker   `json:"now,omitempty"`
}

// Empty reports whether nothing is drawn in the tick.
func (t Tick) Empty() bool {
	return len(t.Segments) == 0 && t.Now == nil
}

// Row is one station's full day.
type Row struct {
	Station int    `json:"station"`
	Ticks   []Tick `json:"ticks"`
}

// Day is the result of one render pass.
type Day struct {
	Rows   []Row   `json:"rows"`
	Legend *Legend `json:"legend"`
}

// LayoutDay lays out every tick of every station, in station order then hour order,
// building the legend once for the whole pass. stationOn may be nil.
func (e Engine) LayoutDay(stations []int, events []Event, frame Frame, stationOn func(int) bool) Day {
	legend := NewLegend()
	rows := make([]Row, 0, len(stations))

	for _, sid := range stations {
		on := stationOn != nil && stationOn(sid)
		row := Row{Station: sid, Ticks: make([]Tick, TicksPerDay)}
		for hour := 0; hour < TicksPerDay; hour++ {
			key := TickKey{Station: sid, Hour: hour}
			row.Ticks[hour] = Tick{
				Hour:     hour,
				Segments: e.Layout(key, events, frame, legend),
				Now:      NowMarker(key, frame, on),
			}
		}
		rows = append(rows, row)
	}

	return Day{Rows: rows, Legend: legend}
}

// StationsOf returns the distinct stations referenced by events, ascending.
func StationsOf(events []Event) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, ev := range events {
		if _, ok := seen[ev.Station]; ok {
			continue
		}
		seen[ev.Station] = struct{}{}
		out = append(out, ev.Station)
	}
	sort.Ints(out)
	return out
}
