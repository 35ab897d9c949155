package repositories

import (
	"context"
	"errors"
	"time"

	"home-energy/entities"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("record not found")

type RoomRepository interface {
	Create(ctx context.Context, room *entities.Room) error
	GetByID(ctx context.Context, id string) (*entities.Room, error)
	GetAll(ctx context.Context) ([]entities.Room, error)
	GetWithoutCamera(ctx context.Context) ([]entities.Room, error)
	SetOccupancy(ctx context.Context, id string, occupied bool, at time.Time) error
	// Delete removes the room and every device in it.
	Delete(ctx context.Context, id string) error
}

type DeviceRepository interface {
	Create(ctx context.Context, device *entities.Device) error
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	GetAll(ctx context.Context) ([]entities.Device, error)
	GetByRoomID(ctx context.Context, roomID string) ([]entities.Device, error)
	GetOnByRoomID(ctx context.Context, roomID string) ([]entities.Device, error)
	// SetState moves a device to isOn at time at. It reports false without
	// error when the device already holds that state or at is older than the
	// device's last state change.
	SetState(ctx context.Context, id string, isOn bool, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type HourlyRecordRepository interface {
	// Insert appends a record. It reports false when a record for the same
	// device and hour already exists.
	Insert(ctx context.Context, rec *entities.HourlyEnergyRecord) (bool, error)
	// ScanBetween hands every record with from <= hour_start < to to fn in
	// pages of at most ScanLimit rows, ordered by hour_start then id. An
	// empty roomID matches all rooms. An error from fn stops the scan.
	ScanBetween(ctx context.Context, from, to time.Time, roomID string, fn func([]entities.HourlyEnergyRecord) error) error
	ListBetween(ctx context.Context, from, to time.Time, roomID string) ([]entities.HourlyEnergyRecord, error)
	SumEnergyWh(ctx context.Context) (float64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type SavingRepository interface {
	Create(ctx context.Context, rec *entities.EnergySavingRecord) error
	// Scan pages through every saving record, oldest first.
	Scan(ctx context.Context, fn func([]entities.EnergySavingRecord) error) error
	GetAll(ctx context.Context) ([]entities.EnergySavingRecord, error)
	// CountByRoom returns the number of saving records per room id.
	CountByRoom(ctx context.Context) (map[string]int, error)
	SumEnergySaved(ctx context.Context) (float64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// Store bundles the repositories over one database handle.
type Store interface {
	Rooms() RoomRepository
	Devices() DeviceRepository
	HourlyRecords() HourlyRecordRepository
	Savings() SavingRepository
	Users() UserRepository
	// Transaction runs fn against a Store bound to a single transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
