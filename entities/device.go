package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceTypeLight is the only device type with automation semantics: the first
// light found on in a room that empties is left on.
const DeviceTypeLight = "light"

type Device struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RoomID          string         `gorm:"index;type:varchar(36);not null" json:"room_id"`
	Name            string         `json:"name"`
	PowerRating     float64        `json:"power_rating"` // watts
	DeviceType      string         `gorm:"type:varchar(32)" json:"device_type"`
	IsOn            bool           `json:"is_on"`
	LastStateChange time.Time      `gorm:"index" json:"last_state_change"`
	CreatedAt       time.Time      `json:"created_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.LastStateChange.IsZero() {
		d.LastStateChange = d.CreatedAt
	}
	return
}

func (d *Device) IsLight() bool { return d.DeviceType == DeviceTypeLight }
