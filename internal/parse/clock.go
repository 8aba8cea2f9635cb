package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var clockRe = regexp.MustCompile(`^(\d+):(\d{1,2})(?::(\d{1,2}(?:\.\d+)?))?$`)

// Clock converts a clock-formatted string into seconds.
//
// Accepted forms are "H:MM", "H:MM:SS" (seconds may carry a fraction) and a
// bare non-negative number of seconds. Minutes and seconds must be below 60.
func Clock(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty clock value")
	}

	if !strings.Contains(s, ":") {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("invalid clock value: %q", raw)
		}
		if secs < 0 {
			return 0, fmt.Errorf("negative clock value: %q", raw)
		}
		return secs, nil
	}

	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid clock value: %q", raw)
	}

	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", raw, err)
	}
	minutes, _ := strconv.Atoi(m[2])
	if minutes >= 60 {
		return 0, fmt.Errorf("minutes out of range in %q", raw)
	}

	var seconds float64
	if m[3] != "" {
		seconds, err = strconv.ParseFloat(m[3], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid seconds in %q: %w", raw, err)
		}
		if seconds >= 60 {
			return 0, fmt.Errorf("seconds out of range in %q", raw)
		}
	}

	return float64(hours*3600+minutes*60) + seconds, nil
}
