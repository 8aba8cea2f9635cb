package timeline

// TicksPerDay is the number of one-hour columns per station row.
const TicksPerDay = 24

// TickMinutes is the width of one tick in minutes.
const TickMinutes = 60.0

// Event is a normalized program run ready for layout.
type Event struct {
	Station int `json:"station"`
	// Start is minutes since midnight of the viewed date. Runs that began the day
	// before are negative.
	Start float64 `json:"start"`
	// Duration is the run length in minutes.
	Duration float64 `json:"duration"`
	// Date is the run's own date. Empty for scheduled runs that have not happened yet.
	Date        string `json:"date,omitempty"`
	Program     int    `json:"program"`
	ProgramName string `json:"program_name"`
	Manual      bool   `json:"manual"`
	// Active marks a run that has actually executed.
	Active  bool   `json:"active"`
	Blocked string `json:"blocked,omitempty"`
	Label   string `json:"label"`
}

// End returns the minute at which the run finishes.
func (e Event) End() float64 {
	return e.Start + e.Duration
}

// Scheduled reports whether the event is a future run without a date.
func (e Event) Scheduled() bool {
	return e.Date == ""
}
