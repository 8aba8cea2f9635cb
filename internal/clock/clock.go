// Package clock holds the time conversions shared by the schedule and status views:
// the device-adjusted "now", minutes since midnight, and clock string formatting.
package clock

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// MinutesPerDay is the length of one viewed day in timeline minutes.
const MinutesPerDay = 24 * 60

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Device is the controller's wall clock as seen from this host: host time shifted by
// a fixed offset and expressed in the controller's location.
type Device struct {
	Offset   time.Duration
	Location *time.Location
	now      func() time.Time
}

// NewDevice creates a Device clock. A nil location means time.Local.
func NewDevice(offset time.Duration, loc *time.Location) *Device {
	if loc == nil {
		loc = time.Local
	}
	return &Device{Offset: offset, Location: loc, now: time.Now}
}

// Now returns the device-adjusted current time.
func (d *Device) Now() time.Time {
	return d.now().Add(d.Offset).In(d.Location)
}

// Fixed is a settable clock for tests and one-shot rendering.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Add moves the clock forward by d.
func (f *Fixed) Add(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// MinutesSinceMidnight returns the whole minutes elapsed since local midnight of t.
func MinutesSinceMidnight(t time.Time) float64 {
	return float64(t.Hour()*60 + t.Minute())
}

// XSDate formats t as an xs:date string, the form /log.json expects.
func XSDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatStart renders minutes since midnight as a clock time, either "15:04" (24h)
// or "3:04 PM" (12h). Values outside one day wrap around.
func FormatStart(minutes float64, format string) string {
	total := int(math.Floor(minutes))
	total = ((total % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	h, m := total/60, total%60

	if format == "12h" {
		suffix := "AM"
		if h >= 12 {
			suffix = "PM"
		}
		h12 := h % 12
		if h12 == 0 {
			h12 = 12
		}
		return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// FormatDuration renders a run length given in minutes as "M:SS", or "H:MM:SS" from one hour up.
func FormatDuration(minutes float64) string {
	secs := int(math.Round(minutes * 60))
	if secs < 0 {
		secs = 0
	}
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatMMSS renders remaining seconds as zero-padded "MM:SS".
func FormatMMSS(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	minutes := math.Floor(seconds / 60)
	secs := math.Floor(seconds - 60*minutes)
	return fmt.Sprintf("%02d:%02d", int(minutes), int(secs))
}

// HMS splits remaining seconds into hour, minute and second components.
func HMS(seconds float64) (h, m, s int) {
	if math.IsNaN(seconds) {
		return 0, 0, 0
	}
	h = int(math.Floor(seconds / 3600))
	m = int(math.Floor(math.Mod(seconds, 3600) / 60))
	s = int(math.Floor(math.Mod(seconds, 60)))
	return h, m, s
}

// FormatHMS renders remaining seconds as zero-padded "HH:MM:SS". Negative components show as zero.
func FormatHMS(seconds float64) string {
	h, m, s := HMS(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", max(h, 0), max(m, 0), max(s, 0))
}

// DateLabel renders the viewed date for the schedule header. The year is only
// appended when it differs from now's year.
func DateLabel(viewed, now time.Time) string {
	label := viewed.Format("Mon, Jan 2")
	if viewed.Year() != now.Year() {
		label += fmt.Sprintf(", %d", viewed.Year())
	}
	return label
}
