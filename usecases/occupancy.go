package usecases

import (
	"context"
	"time"

	"home-energy/entities"
	"home-energy/metrics"
	"home-energy/repositories"

	"go.uber.org/zap"
)

// OccupancyUseCase reacts to room occupancy transitions by switching the
// room's devices and recording the estimated savings.
type OccupancyUseCase struct {
	store  repositories.Store
	clock  Clock
	events EventPublisher
	log    *zap.Logger
}

func NewOccupancyUseCase(store repositories.Store, clock Clock, events EventPublisher, log *zap.Logger) *OccupancyUseCase {
	return &OccupancyUseCase{
		store:  store,
		clock:  clock,
		events: publisherOrNoop(events),
		log:    log.Named("occupancy"),
	}
}

// OccupancyResult describes what a report changed.
type OccupancyResult struct {
	RoomID    string                       `json:"room_id"`
	Occupied  bool                         `json:"is_occupied"`
	At        time.Time                    `json:"timestamp"`
	TurnedOn  []string                     `json:"devices_turned_on"`
	TurnedOff []string                     `json:"devices_turned_off"`
	KeptOn    string                       `json:"safety_light_kept_on,omitempty"`
	Saving    *entities.EnergySavingRecord `json:"energy_saving,omitempty"`
}

// ReportOccupancy applies an occupancy transition for a room at time at (zero
// means now).
//
// Occupied switches every device in the room on. Unoccupied switches off every
// device that is on except the first light, and appends one savings record
// estimating power_rating/1000 per switched device. The room's occupancy and
// last_seen are always rewritten.
func (uc *OccupancyUseCase) ReportOccupancy(ctx context.Context, roomID string, occupied bool, at time.Time) (*OccupancyResult, error) {
	if roomID == "" {
		return nil, validation("room_id is required")
	}
	if at.IsZero() {
		at = uc.clock.Now()
	}
	at = at.UTC()

	if _, err := uc.store.Rooms().GetByID(ctx, roomID); err != nil {
		return nil, storeErr(err, "room "+roomID)
	}

	result := &OccupancyResult{
		RoomID:    roomID,
		Occupied:  occupied,
		At:        at,
		TurnedOn:  []string{},
		TurnedOff: []string{},
	}

	err := uc.store.Transaction(ctx, func(tx repositories.Store) error {
		var err error
		if occupied {
			err = uc.switchOn(ctx, tx, roomID, at, result)
		} else {
			err = uc.switchOff(ctx, tx, roomID, at, result)
		}
		if err != nil {
			return err
		}
		return storeErr(tx.Rooms().SetOccupancy(ctx, roomID, occupied, at), "room "+roomID)
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveOccupancy(occupied)
	if occupied {
		metrics.AddTransitions("occupancy", true, len(result.TurnedOn))
	} else {
		metrics.AddTransitions("occupancy", false, len(result.TurnedOff))
	}
	uc.log.Info("occupancy updated",
		zap.String("room_id", roomID),
		zap.Bool("occupied", occupied),
		zap.Int("turned_on", len(result.TurnedOn)),
		zap.Int("turned_off", len(result.TurnedOff)))

	uc.publish(ctx, result)
	return result, nil
}

func (uc *OccupancyUseCase) switchOn(ctx context.Context, tx repositories.Store, roomID string, at time.Time, result *OccupancyResult) error {
	devices, err := tx.Devices().GetByRoomID(ctx, roomID)
	if err != nil {
		return storeErr(err, "devices of room "+roomID)
	}
	for _, d := range devices {
		applied, err := switchDevice(ctx, tx.Devices(), uc.log, d.ID, true, at)
		if err != nil {
			return err
		}
		if applied {
			result.TurnedOn = append(result.TurnedOn, d.ID)
		}
	}
	return nil
}

func (uc *OccupancyUseCase) switchOff(ctx context.Context, tx repositories.Store, roomID string, at time.Time, result *OccupancyResult) error {
	devices, err := tx.Devices().GetOnByRoomID(ctx, roomID)
	if err != nil {
		return storeErr(err, "devices of room "+roomID)
	}

	var estimate float64
	for _, d := range devices {
		// Only the first light stays on; later lights are switched like anything else.
		if d.IsLight() && result.KeptOn == "" {
			result.KeptOn = d.ID
			continue
		}
		applied, err := switchDevice(ctx, tx.Devices(), uc.log, d.ID, false, at)
		if err != nil {
			return err
		}
		if !applied {
			continue
		}
		estimate += d.PowerRating / 1000
		result.TurnedOff = append(result.TurnedOff, d.ID)
	}

	if len(result.TurnedOff) == 0 {
		return nil
	}
	saving := &entities.EnergySavingRecord{
		RoomID:          roomID,
		EnergySaved:     estimate,
		DevicesAffected: append([]string(nil), result.TurnedOff...),
		Timestamp:       at,
	}
	if err := tx.Savings().Create(ctx, saving); err != nil {
		return storeErr(err, "record energy saving")
	}
	result.Saving = saving
	return nil
}

func (uc *OccupancyUseCase) publish(ctx context.Context, result *OccupancyResult) {
	changed := append(append([]string(nil), result.TurnedOn...), result.TurnedOff...)
	for _, id := range changed {
		d, err := uc.store.Devices().GetByID(ctx, id)
		if err != nil {
			continue
		}
		uc.events.Publish(EventDeviceState, d)
	}
	uc.events.Publish(EventOccupancy, result)
	if result.Saving != nil {
		metrics.AddEnergySaved(result.Saving.EnergySaved)
		uc.events.Publish(EventEnergySaving, result.Saving)
	}
}

// ListRoomsWithoutCamera lists the rooms whose occupancy has to be simulated.
func (uc *OccupancyUseCase) ListRoomsWithoutCamera(ctx context.Context) ([]entities.Room, error) {
	rooms, err := uc.store.Rooms().GetWithoutCamera(ctx)
	return rooms, storeErr(err, "list rooms without camera")
}

// Report is ReportOccupancy for callers that only need the error.
func (uc *OccupancyUseCase) Report(ctx context.Context, roomID string, occupied bool, at time.Time) error {
	_, err := uc.ReportOccupancy(ctx, roomID, occupied, at)
	return err
}
