package model

import (
	"time"
)

// RunOpen is a station that is currently switched on (hot table).
type RunOpen struct {
	StationID  int64     `gorm:"primaryKey;autoIncrement:false"`
	ObservedAt time.Time `gorm:"not null"` // First poll that saw the station on
	Reason     string    `gorm:"size:32;not null"`
	Remaining  int       `gorm:"not null"` // Seconds left at ObservedAt, negative if unbounded
}

// RunHistory is a finished run (cold table).
type RunHistory struct {
	ID          int64     `gorm:"primaryKey"`
	StationID   int64     `gorm:"not null;index:idx_run_histories_station_observed,priority:1"`
	ObservedAt  time.Time `gorm:"not null;index:idx_run_histories_station_observed,priority:2"` // Poll that saw the run end
	Reason      string    `gorm:"size:32;not null"`
	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`
}

// Duration returns how long the station was on.
func (r RunHistory) Duration() time.Duration {
	return r.PeriodEnd.Sub(r.PeriodStart)
}
