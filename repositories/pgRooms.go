package repositories

import (
	"context"
	"time"

	"home-energy/db"
	"home-energy/entities"

	"gorm.io/gorm"
)

type roomPgRepository struct {
	db db.Database
}

func NewRoomPgRepository(database db.Database) RoomRepository {
	return &roomPgRepository{db: database}
}

func (r *roomPgRepository) Create(ctx context.Context, room *entities.Room) error {
	return r.db.GetDB().WithContext(ctx).Create(room).Error
}

func (r *roomPgRepository) GetByID(ctx context.Context, id string) (*entities.Room, error) {
	var room entities.Room
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (r *roomPgRepository) GetAll(ctx context.Context) ([]entities.Room, error) {
	var rooms []entities.Room
	err := r.db.GetDB().WithContext(ctx).Order("created_at ASC, id ASC").Limit(ScanLimit).Find(&rooms).Error
	return rooms, err
}

func (r *roomPgRepository) GetWithoutCamera(ctx context.Context) ([]entities.Room, error) {
	var rooms []entities.Room
	err := r.db.GetDB().WithContext(ctx).Where("has_camera = ?", false).Order("created_at ASC, id ASC").Limit(ScanLimit).Find(&rooms).Error
	return rooms, err
}

func (r *roomPgRepository) SetOccupancy(ctx context.Context, id string, occupied bool, at time.Time) error {
	res := r.db.GetDB().WithContext(ctx).Model(&entities.Room{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_occupied": occupied,
		"last_seen":   at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roomPgRepository) Delete(ctx context.Context, id string) error {
	return r.db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&entities.Room{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("room_id = ?", id).Delete(&entities.Device{}).Error
	})
}
