package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LogEntry is one record of /log.json as the controller sends it.
type LogEntry struct {
	Station     int             `json:"station"`
	Start       string          `json:"start"`
	Duration    string          `json:"duration"`
	Date        string          `json:"date,omitempty"`
	Program     json.RawMessage `json:"program,omitempty"`
	ProgramName string          `json:"program_name"`
	Manual      any             `json:"manual,omitempty"`
	Active      any             `json:"active,omitempty"`
	Blocked     any             `json:"blocked,omitempty"`
}

// ProgramID decodes the program identifier, which may arrive as a number or a numeric string.
func (e LogEntry) ProgramID() (int, error) {
	raw := bytes.TrimSpace(e.Program)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("program id missing")
	}

	var n json.Number
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("invalid program id %s: %w", raw, err)
		}
		n = json.Number(strings.TrimSpace(s))
	} else {
		n = json.Number(raw)
	}

	id, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, fmt.Errorf("invalid program id %s: %w", raw, err)
	}
	return id, nil
}

// IsManual reports whether the run was started by hand.
func (e LogEntry) IsManual() bool {
	return truthy(e.Manual)
}

// HasRun reports whether the run has actually executed.
func (e LogEntry) HasRun() bool {
	return e.Active != nil
}

// BlockReason returns why the run was suppressed, or "" if it was not.
func (e LogEntry) BlockReason() string {
	switch v := e.Blocked.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "unknown"
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// StationStatus is one record of /status.json.
type StationStatus struct {
	Station   int     `json:"station"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason"`
	Remaining float64 `json:"remaining"`
}

// Status reasons reported by the controller.
const (
	ReasonProgram    = "program"
	ReasonMaster     = "master"
	ReasonRainDelay  = "rain_delay"
	ReasonRainSensed = "rain_sensed"
	ReasonSystemOff  = "system_off"
)

// StatusOn is the status token of a running station.
const StatusOn = "on"

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0" && !strings.EqualFold(t, "false")
	default:
		return true
	}
}
