package usecases

import (
	"context"
	"strings"
	"time"

	"home-energy/entities"
	"home-energy/metrics"
	"home-energy/repositories"

	"go.uber.org/zap"
)

// DeviceUseCase is the device registry: rooms, devices and their on/off state.
type DeviceUseCase struct {
	store  repositories.Store
	clock  Clock
	events EventPublisher
	log    *zap.Logger
}

func NewDeviceUseCase(store repositories.Store, clock Clock, events EventPublisher, log *zap.Logger) *DeviceUseCase {
	return &DeviceUseCase{
		store:  store,
		clock:  clock,
		events: publisherOrNoop(events),
		log:    log.Named("devices"),
	}
}

// StateChange is the outcome of a state change request.
type StateChange struct {
	Device  *entities.Device `json:"device"`
	Applied bool             `json:"applied"`
	Reason  string           `json:"reason,omitempty"`
}

// CreateRoom creates a new room
func (uc *DeviceUseCase) CreateRoom(ctx context.Context, room *entities.Room) error {
	room.Name = strings.TrimSpace(room.Name)
	if room.Name == "" {
		return validation("room name is required")
	}
	room.IsOccupied = false
	room.LastSeen = nil
	return storeErr(uc.store.Rooms().Create(ctx, room), "create room")
}

// GetRoom retrieves a room by ID
func (uc *DeviceUseCase) GetRoom(ctx context.Context, id string) (*entities.Room, error) {
	if id == "" {
		return nil, validation("room id is required")
	}
	room, err := uc.store.Rooms().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "room "+id)
	}
	return room, nil
}

func (uc *DeviceUseCase) ListRooms(ctx context.Context) ([]entities.Room, error) {
	rooms, err := uc.store.Rooms().GetAll(ctx)
	return rooms, storeErr(err, "list rooms")
}

// DeleteRoom deletes a room together with its devices.
func (uc *DeviceUseCase) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return validation("room id is required")
	}
	return storeErr(uc.store.Rooms().Delete(ctx, id), "room "+id)
}

// CreateDevice creates a new device in an existing room. Devices start on.
func (uc *DeviceUseCase) CreateDevice(ctx context.Context, device *entities.Device) error {
	device.Name = strings.TrimSpace(device.Name)
	device.DeviceType = strings.ToLower(strings.TrimSpace(device.DeviceType))
	if device.Name == "" {
		return validation("device name is required")
	}
	if device.DeviceType == "" {
		return validation("device type is required")
	}
	if device.PowerRating <= 0 {
		return validation("power rating must be greater than zero")
	}
	if device.RoomID == "" {
		return validation("room_id is required")
	}

	// Verify room exists
	if _, err := uc.store.Rooms().GetByID(ctx, device.RoomID); err != nil {
		return storeErr(err, "room "+device.RoomID)
	}

	now := uc.clock.Now().UTC()
	device.ID = ""
	device.IsOn = true
	device.CreatedAt = now
	device.LastStateChange = now
	return storeErr(uc.store.Devices().Create(ctx, device), "create device")
}

// GetDevice retrieves a device by ID
func (uc *DeviceUseCase) GetDevice(ctx context.Context, id string) (*entities.Device, error) {
	if id == "" {
		return nil, validation("device id is required")
	}
	device, err := uc.store.Devices().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "device "+id)
	}
	return device, nil
}

// ListDevices lists every device, or only those of roomID when it is set.
func (uc *DeviceUseCase) ListDevices(ctx context.Context, roomID string) ([]entities.Device, error) {
	var (
		devices []entities.Device
		err     error
	)
	if roomID != "" {
		devices, err = uc.store.Devices().GetByRoomID(ctx, roomID)
	} else {
		devices, err = uc.store.Devices().GetAll(ctx)
	}
	return devices, storeErr(err, "list devices")
}

// DeleteDevice deletes a device
func (uc *DeviceUseCase) DeleteDevice(ctx context.Context, id string) error {
	if id == "" {
		return validation("device id is required")
	}
	return storeErr(uc.store.Devices().Delete(ctx, id), "device "+id)
}

// SetDeviceState is the manual on/off request. A zero at means now.
// Requests older than the device's last transition are dropped.
func (uc *DeviceUseCase) SetDeviceState(ctx context.Context, id string, isOn bool, at time.Time) (*StateChange, error) {
	if id == "" {
		return nil, validation("device id is required")
	}
	if at.IsZero() {
		at = uc.clock.Now()
	}
	at = at.UTC()

	applied, err := switchDevice(ctx, uc.store.Devices(), uc.log, id, isOn, at)
	if err != nil {
		return nil, err
	}
	device, err := uc.store.Devices().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "device "+id)
	}

	change := &StateChange{Device: device, Applied: applied}
	if applied {
		metrics.AddTransitions("manual", isOn, 1)
		uc.events.Publish(EventDeviceState, device)
	} else if device.IsOn == isOn && !at.Before(device.LastStateChange) {
		change.Reason = "device already in requested state"
	} else {
		change.Reason = ErrInvalidTransition.Error()
	}
	return change, nil
}

// switchDevice applies one transition through the monotonic guard. Stale
// requests are logged and reported as not applied.
func switchDevice(ctx context.Context, devices repositories.DeviceRepository, log *zap.Logger, id string, isOn bool, at time.Time) (bool, error) {
	applied, err := devices.SetState(ctx, id, isOn, at)
	if err != nil {
		return false, storeErr(err, "set state of device "+id)
	}
	if applied {
		return true, nil
	}

	current, err := devices.GetByID(ctx, id)
	if err != nil {
		return false, storeErr(err, "device "+id)
	}
	if at.Before(current.LastStateChange) {
		metrics.IncStaleTransition()
		log.Warn("dropping state change",
			zap.String("device_id", id),
			zap.Bool("is_on", isOn),
			zap.Time("at", at),
			zap.Time("last_state_change", current.LastStateChange),
			zap.Error(ErrInvalidTransition))
	}
	return false, nil
}
