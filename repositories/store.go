package repositories

import (
	"context"
	"errors"

	"home-energy/db"

	"gorm.io/gorm"
)

type pgStore struct {
	db db.Database
}

func NewStore(database db.Database) Store {
	return &pgStore{db: database}
}

func (s *pgStore) Rooms() RoomRepository                 { return NewRoomPgRepository(s.db) }
func (s *pgStore) Devices() DeviceRepository             { return NewDevicePgRepository(s.db) }
func (s *pgStore) HourlyRecords() HourlyRecordRepository { return NewHourlyRecordPgRepository(s.db) }
func (s *pgStore) Savings() SavingRepository             { return NewSavingPgRepository(s.db) }
func (s *pgStore) Users() UserRepository                 { return NewUserPgRepository(s.db) }

func (s *pgStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: db.Wrap(tx)})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
