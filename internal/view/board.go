// Package view holds the rendered state the controllers write and the HTTP API and CLI read.
package view

import (
	"sort"
	"sync"

	"irrigation-status-backend/internal/schedule"
	"irrigation-status-backend/internal/status"
)

const onClass = "station_on"

// Board is the latest rendering of every controller. Controllers write to it from
// the event loop; readers get copies.
type Board struct {
	mu         sync.RWMutex
	schedule   schedule.View
	status     status.Snapshot
	countdowns map[string]string
	stations   []int
	on         map[int]bool
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		countdowns: make(map[string]string),
		on:         make(map[int]bool),
	}
}

// RenderSchedule stores the latest schedule view.
func (b *Board) RenderSchedule(v schedule.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.schedule = v
}

// RenderStatus stores the snapshot and refreshes the station set and running flags
// from its cells.
func (b *Board) RenderStatus(s status.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s

	if s.Error != "" && len(s.Cells) == 0 {
		return
	}
	stations := make([]int, 0, len(s.Cells))
	on := make(map[int]bool, len(s.Cells))
	for _, cell := range s.Cells {
		stations = append(stations, cell.Station)
		for _, class := range cell.Classes {
			if class == onClass {
				on[cell.Station] = true
			}
		}
	}
	sort.Ints(stations)
	b.stations = stations
	b.on = on
}

// RenderCountdown sets the displayed text of countdown id.
func (b *Board) RenderCountdown(id, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countdowns[id] = text
}

// ClearCountdown removes countdown id from the display.
func (b *Board) ClearCountdown(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.countdowns, id)
}

// StationIDs returns the stations of the latest status batch, ascending.
func (b *Board) StationIDs() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]int, len(b.stations))
	copy(out, b.stations)
	return out
}

// IsOn reports whether the station was running in the latest status batch.
func (b *Board) IsOn(station int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.on[station]
}

// Schedule returns the latest schedule view.
func (b *Board) Schedule() schedule.View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.schedule
}

// Status returns the latest status snapshot.
func (b *Board) Status() status.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Countdowns returns a copy of the displayed countdown texts.
func (b *Board) Countdowns() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.countdowns))
	for id, text := range b.countdowns {
		out[id] = text
	}
	return out
}
