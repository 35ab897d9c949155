package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HourlyEnergyRecord is the immutable ledger entry for one device over one
// wall-clock hour. (DeviceID, HourStart) is unique.
type HourlyEnergyRecord struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DeviceID    string    `gorm:"uniqueIndex:idx_hourly_device_hour;type:varchar(36);not null" json:"device_id"`
	HourStart   time.Time `gorm:"uniqueIndex:idx_hourly_device_hour;index;not null" json:"hour_start"`
	RoomID      string    `gorm:"index;type:varchar(36)" json:"room_id"`
	PowerRating float64   `json:"power_rating"`
	MinutesOn   float64   `json:"minutes_on"`
	EnergyWh    float64   `json:"energy_wh"`
	WasOn       bool      `json:"was_on"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *HourlyEnergyRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// EnergySavingRecord is appended when automation powers devices off in a room
// that became unoccupied. EnergySaved holds the flat one-hour estimate
// (sum of power_rating/1000 over the affected devices).
type EnergySavingRecord struct {
	ID              string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RoomID          string                      `gorm:"index;type:varchar(36)" json:"room_id"`
	EnergySaved     float64                     `json:"energy_saved"`
	DevicesAffected datatypes.JSONSlice[string] `json:"devices_affected"`
	Timestamp       time.Time                   `gorm:"column:saved_at;index" json:"timestamp"`
}

func (s *EnergySavingRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}
