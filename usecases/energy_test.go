package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"home-energy/entities"
	"home-energy/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMinutesOn(t *testing.T) {
	hour := at(10, 0)

	tests := []struct {
		name   string
		isOn   bool
		change time.Time
		want   float64
	}{
		{"on since before the hour", true, at(8, 30), 60},
		{"on exactly at hour start", true, at(10, 0), 60},
		{"switched on mid-hour", true, at(10, 15), 45},
		{"switched on after the hour", true, at(11, 20), 0},
		{"switched off mid-hour", false, at(10, 50), 50},
		{"switched off exactly at hour start", false, at(10, 0), 0},
		{"switched off exactly at hour end", false, at(11, 0), 0},
		{"off since before the hour", false, at(9, 10), 0},
		{"switched on 30s into the hour", true, hour.Add(30 * time.Second), 59.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinutesOn(tt.isOn, tt.change, hour)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 60.0)
		})
	}
}

func TestEnergyWh(t *testing.T) {
	assert.InDelta(t, 75.0, EnergyWh(100, 45), 1e-9)
	assert.InDelta(t, 100.0, EnergyWh(100, 60), 1e-9)
	assert.Zero(t, EnergyWh(100, 0))
}

func TestRunHourlyIntegrationWritesOneRecordPerDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.room(t, "Office", false)
	steady := f.device(t, room.ID, "Monitor", "screen", 60)
	late := f.device(t, room.ID, "Heater", "heater", 100)

	f.clock.Set(at(9, 30))
	_, err := f.devices.SetDeviceState(ctx, late.ID, false, time.Time{})
	require.NoError(t, err)
	f.clock.Set(at(10, 15))
	_, err = f.devices.SetDeviceState(ctx, late.ID, true, time.Time{})
	require.NoError(t, err)

	f.clock.Set(at(11, 30))
	report, err := f.energy.RunHourlyIntegration(ctx, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Devices)
	assert.Equal(t, 2, report.Written)
	assert.Zero(t, report.Duplicates)
	assert.Zero(t, report.Failed)
	assert.InDelta(t, 60+75.0, report.TotalEnergyWh, 1e-9)

	recs, err := f.store.HourlyRecords().ListBetween(ctx, at(10, 0), at(11, 0), "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	byDevice := map[string]float64{}
	for _, r := range recs {
		assert.True(t, r.HourStart.Equal(at(10, 0)))
		byDevice[r.DeviceID] = r.EnergyWh
	}
	assert.InDelta(t, 60.0, byDevice[steady.ID], 1e-9)
	assert.InDelta(t, 75.0, byDevice[late.ID], 1e-9)

	again, err := f.energy.RunHourlyIntegration(ctx, at(10, 20))
	require.NoError(t, err)
	assert.Zero(t, again.Written)
	assert.Equal(t, 2, again.Duplicates)

	recs, err = f.store.HourlyRecords().ListBetween(ctx, at(10, 0), at(11, 0), "")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, 2, f.events.count(EventHourlyRun))
}

func TestRunHourlyIntegrationSwitchedOnAndOffWithinHour(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.room(t, "Kitchen", false)
	kettle := f.device(t, room.ID, "Kettle", "appliance", 120)

	f.clock.Set(at(9, 30))
	_, err := f.devices.SetDeviceState(ctx, kettle.ID, false, time.Time{})
	require.NoError(t, err)
	_, err = f.devices.SetDeviceState(ctx, kettle.ID, true, at(10, 15))
	require.NoError(t, err)
	_, err = f.devices.SetDeviceState(ctx, kettle.ID, false, at(10, 50))
	require.NoError(t, err)

	f.clock.Set(at(11, 0))
	report, err := f.energy.RunHourlyIntegration(ctx, at(10, 0))
	require.NoError(t, err)
	require.Equal(t, 1, report.Written)

	recs, err := f.store.HourlyRecords().ListBetween(ctx, at(10, 0), at(11, 0), room.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	// only the latest transition is visible, so the whole head of the hour counts
	assert.InDelta(t, 50.0, recs[0].MinutesOn, 1e-9)
	assert.InDelta(t, 100.0, recs[0].EnergyWh, 1e-9)
	assert.True(t, recs[0].WasOn)
}

func TestRunHourlyIntegrationRejectsUnfinishedHour(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(at(10, 59))

	_, err := f.energy.RunHourlyIntegration(context.Background(), at(10, 0))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRunPreviousHour(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "Hall", false)
	f.device(t, room.ID, "Lamp", "light", 40)

	f.clock.Set(at(11, 5))
	report, err := f.energy.RunPreviousHour(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HourStart.Equal(at(10, 0)))
	assert.True(t, report.HourEnd.Equal(at(11, 0)))
	assert.Equal(t, 1, report.Written)
	assert.InDelta(t, 40.0, report.TotalEnergyWh, 1e-9)
}

// failingStore rejects hourly record inserts for one device.
type failingStore struct {
	repositories.Store
	deviceID string
}

func (s failingStore) HourlyRecords() repositories.HourlyRecordRepository {
	return failingRecords{HourlyRecordRepository: s.Store.HourlyRecords(), deviceID: s.deviceID}
}

type failingRecords struct {
	repositories.HourlyRecordRepository
	deviceID string
}

func (r failingRecords) Insert(ctx context.Context, rec *entities.HourlyEnergyRecord) (bool, error) {
	if rec.DeviceID == r.deviceID {
		return false, errors.New("disk full")
	}
	return r.HourlyRecordRepository.Insert(ctx, rec)
}

func TestRunHourlyIntegrationContinuesPastFailedDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.room(t, "Utility", false)
	boiler := f.device(t, room.ID, "Boiler", "heater", 3000)
	f.device(t, room.ID, "Freezer", "appliance", 120)
	f.device(t, room.ID, "Router", "network", 12)

	f.clock.Set(at(11, 0))
	energy := NewEnergyUseCase(failingStore{Store: f.store, deviceID: boiler.ID}, f.clock, f.events, zap.NewNop())
	report, err := energy.RunHourlyIntegration(ctx, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Devices)
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, boiler.ID, report.Failures[0].DeviceID)
	assert.Contains(t, report.Failures[0].Error, "disk full")
	assert.InDelta(t, 120+12.0, report.TotalEnergyWh, 1e-9)

	recs, err := f.store.HourlyRecords().ListBetween(ctx, at(10, 0), at(11, 0), "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.NotEqual(t, boiler.ID, r.DeviceID)
	}

	// the failed device is written by the next run for the same hour
	retry, err := f.energy.RunHourlyIntegration(ctx, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Written)
	assert.Equal(t, 2, retry.Duplicates)
	assert.Zero(t, retry.Failed)
}
