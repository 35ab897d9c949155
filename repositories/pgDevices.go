package repositories

import (
	"context"
	"time"

	"home-energy/db"
	"home-energy/entities"
)

// ScanLimit caps every unbounded listing.
const ScanLimit = 5000

type devicePgRepository struct {
	db db.Database
}

func NewDevicePgRepository(database db.Database) DeviceRepository {
	return &devicePgRepository{db: database}
}

func (r *devicePgRepository) Create(ctx context.Context, device *entities.Device) error {
	return r.db.GetDB().WithContext(ctx).Create(device).Error
}

func (r *devicePgRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	var device entities.Device
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&device).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (r *devicePgRepository) GetAll(ctx context.Context) ([]entities.Device, error) {
	var devices []entities.Device
	err := r.db.GetDB().WithContext(ctx).Order("created_at ASC, id ASC").Limit(ScanLimit).Find(&devices).Error
	return devices, err
}

func (r *devicePgRepository) GetByRoomID(ctx context.Context, roomID string) ([]entities.Device, error) {
	var devices []entities.Device
	err := r.db.GetDB().WithContext(ctx).Where("room_id = ?", roomID).Order("created_at ASC, id ASC").Limit(ScanLimit).Find(&devices).Error
	return devices, err
}

func (r *devicePgRepository) GetOnByRoomID(ctx context.Context, roomID string) ([]entities.Device, error) {
	var devices []entities.Device
	err := r.db.GetDB().WithContext(ctx).Where("room_id = ? AND is_on = ?", roomID, true).Order("created_at ASC, id ASC").Limit(ScanLimit).Find(&devices).Error
	return devices, err
}

// SetState is a compare-and-swap on last_state_change: the row only changes
// when at is not older than the stored transition time.
func (r *devicePgRepository) SetState(ctx context.Context, id string, isOn bool, at time.Time) (bool, error) {
	res := r.db.GetDB().WithContext(ctx).Model(&entities.Device{}).
		Where("id = ? AND last_state_change <= ? AND is_on <> ?", id, at, isOn).
		Updates(map[string]interface{}{
			"is_on":             isOn,
			"last_state_change": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *devicePgRepository) Delete(ctx context.Context, id string) error {
	res := r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.Device{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
