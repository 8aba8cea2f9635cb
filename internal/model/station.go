package model

import "time"

// Station is a controller station as reported by the latest status batch.
type Station struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"` // Controller station number
	Status    string    `gorm:"size:32;not null"`
	Reason    string    `gorm:"size:32;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
