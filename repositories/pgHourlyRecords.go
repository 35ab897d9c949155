package repositories

import (
	"context"
	"time"

	"home-energy/db"
	"home-energy/entities"

	"gorm.io/gorm/clause"
)

type hourlyRecordPgRepository struct {
	db db.Database
}

func NewHourlyRecordPgRepository(database db.Database) HourlyRecordRepository {
	return &hourlyRecordPgRepository{db: database}
}

func (r *hourlyRecordPgRepository) Insert(ctx context.Context, rec *entities.HourlyEnergyRecord) (bool, error) {
	res := r.db.GetDB().WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *hourlyRecordPgRepository) ScanBetween(ctx context.Context, from, to time.Time, roomID string, fn func([]entities.HourlyEnergyRecord) error) error {
	var (
		lastHour time.Time
		lastID   string
	)
	for first := true; ; first = false {
		q := r.db.GetDB().WithContext(ctx).Where("hour_start >= ? AND hour_start < ?", from, to)
		if roomID != "" {
			q = q.Where("room_id = ?", roomID)
		}
		if !first {
			q = q.Where("(hour_start > ? OR (hour_start = ? AND id > ?))", lastHour, lastHour, lastID)
		}
		var page []entities.HourlyEnergyRecord
		if err := q.Order("hour_start ASC, id ASC").Limit(ScanLimit).Find(&page).Error; err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < ScanLimit {
			return nil
		}
		lastHour, lastID = page[len(page)-1].HourStart, page[len(page)-1].ID
	}
}

func (r *hourlyRecordPgRepository) ListBetween(ctx context.Context, from, to time.Time, roomID string) ([]entities.HourlyEnergyRecord, error) {
	var recs []entities.HourlyEnergyRecord
	err := r.ScanBetween(ctx, from, to, roomID, func(page []entities.HourlyEnergyRecord) error {
		recs = append(recs, page...)
		return nil
	})
	return recs, err
}

func (r *hourlyRecordPgRepository) SumEnergyWh(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.HourlyEnergyRecord{}).
		Select("COALESCE(SUM(energy_wh), 0)").Scan(&total).Error
	return total, err
}

func (r *hourlyRecordPgRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.GetDB().WithContext(ctx).Where("1 = 1").Delete(&entities.HourlyEnergyRecord{})
	return res.RowsAffected, res.Error
}
