package repositories

import (
	"context"
	"time"

	"home-energy/db"
	"home-energy/entities"
)

type savingPgRepository struct {
	db db.Database
}

func NewSavingPgRepository(database db.Database) SavingRepository {
	return &savingPgRepository{db: database}
}

func (r *savingPgRepository) Create(ctx context.Context, rec *entities.EnergySavingRecord) error {
	return r.db.GetDB().WithContext(ctx).Create(rec).Error
}

func (r *savingPgRepository) Scan(ctx context.Context, fn func([]entities.EnergySavingRecord) error) error {
	var (
		lastAt time.Time
		lastID string
	)
	for first := true; ; first = false {
		q := r.db.GetDB().WithContext(ctx)
		if !first {
			q = q.Where("(saved_at > ? OR (saved_at = ? AND id > ?))", lastAt, lastAt, lastID)
		}
		var page []entities.EnergySavingRecord
		if err := q.Order("saved_at ASC, id ASC").Limit(ScanLimit).Find(&page).Error; err != nil {
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
		lastAt, lastID = page[len(page)-1].Timestamp, page[len(page)-1].ID
	}
}

func (r *savingPgRepository) GetAll(ctx context.Context) ([]entities.EnergySavingRecord, error) {
	var recs []entities.EnergySavingRecord
	err := r.Scan(ctx, func(page []entities.EnergySavingRecord) error {
		recs = append(recs, page...)
		return nil
	})
	return recs, err
}

func (r *savingPgRepository) CountByRoom(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		RoomID string
		Events int
	}
	err := r.db.GetDB().WithContext(ctx).Model(&entities.EnergySavingRecord{}).
		Select("room_id, COUNT(*) AS events").Group("room_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.RoomID] = row.Events
	}
	return counts, nil
}

func (r *savingPgRepository) SumEnergySaved(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.EnergySavingRecord{}).
		Select("COALESCE(SUM(energy_saved), 0)").Scan(&total).Error
	return total, err
}
