package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportUnoccupiedKeepsFirstLightOn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.room(t, "Living room", false)
	lightA := f.device(t, room.ID, "Ceiling light", "light", 60)
	fanB := f.device(t, room.ID, "Fan", "fan", 75)
	lightC := f.device(t, room.ID, "Floor lamp", "light", 40)

	res, err := f.occupancy.ReportOccupancy(ctx, room.ID, false, at(12, 0))
	require.NoError(t, err)
	assert.Equal(t, lightA.ID, res.KeptOn)
	assert.Equal(t, []string{fanB.ID, lightC.ID}, res.TurnedOff)
	assert.Empty(t, res.TurnedOn)
	require.NotNil(t, res.Saving)
	assert.InDelta(t, (75.0+40.0)/1000, res.Saving.EnergySaved, 1e-12)
	assert.ElementsMatch(t, []string{fanB.ID, lightC.ID}, []string(res.Saving.DevicesAffected))

	a, err := f.devices.GetDevice(ctx, lightA.ID)
	require.NoError(t, err)
	assert.True(t, a.IsOn)
	c, err := f.devices.GetDevice(ctx, lightC.ID)
	require.NoError(t, err)
	assert.False(t, c.IsOn)
	assert.True(t, c.LastStateChange.Equal(at(12, 0)))

	r, err := f.devices.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, r.IsOccupied)
	require.NotNil(t, r.LastSeen)
	assert.True(t, r.LastSeen.Equal(at(12, 0)))

	assert.Equal(t, 1, f.events.count(EventEnergySaving))
	assert.Equal(t, 2, f.events.count(EventDeviceState))
}

func TestRepeatedUnoccupiedRecordsOneSaving(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.room(t, "Bedroom", false)
	f.device(t, room.ID, "Lamp", "light", 40)
	f.device(t, room.ID, "TV", "tv", 120)

	first, err := f.occupancy.ReportOccupancy(ctx, room.ID, false, at(12, 0))
	require.NoError(t, err)
	require.NotNil(t, first.Saving)

	second, err := f.occupancy.ReportOccupancy(ctx, room.ID, false, at(12, 5))
	require.NoError(t, err)
	assert.Nil(t, second.Saving)
	assert.Empty(t, second.TurnedOff)

	savings, err := f.store.Savings().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, savings, 1)

	r, err := f.devices.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, r.LastSeen.Equal(at(12, 5)))
}

func TestReportOccupiedTurnsEverythingOn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.room(t, "Study", false)
	lamp := f.device(t, room.ID, "Lamp", "light", 40)
	pc := f.device(t, room.ID, "PC", "computer", 200)

	_, err := f.occupancy.ReportOccupancy(ctx, room.ID, false, at(12, 0))
	require.NoError(t, err)

	res, err := f.occupancy.ReportOccupancy(ctx, room.ID, true, at(13, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{pc.ID}, res.TurnedOn)
	assert.Nil(t, res.Saving)

	devices, err := f.devices.ListDevices(ctx, room.ID)
	require.NoError(t, err)
	for _, d := range devices {
		assert.True(t, d.IsOn, d.Name)
	}
	l, err := f.devices.GetDevice(ctx, lamp.ID)
	require.NoError(t, err)
	// the lamp never went off, so its transition time is untouched
	assert.True(t, l.LastStateChange.Before(at(12, 0)))

	r, err := f.devices.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, r.IsOccupied)

	savings, err := f.store.Savings().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, savings, 1)
}

func TestReportOccupancyUnknownRoom(t *testing.T) {
	f := newFixture(t)

	_, err := f.occupancy.ReportOccupancy(context.Background(), "missing", true, time.Time{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.occupancy.ReportOccupancy(context.Background(), "", true, time.Time{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReportOccupancyIgnoresStaleTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.room(t, "Garage", false)
	f.clock.Set(at(14, 0))
	charger := f.device(t, room.ID, "Charger", "charger", 30)

	res, err := f.occupancy.ReportOccupancy(ctx, room.ID, false, at(13, 0))
	require.NoError(t, err)
	assert.Empty(t, res.TurnedOff)
	assert.Nil(t, res.Saving)

	d, err := f.devices.GetDevice(ctx, charger.ID)
	require.NoError(t, err)
	assert.True(t, d.IsOn)
}

func TestListRoomsWithoutCamera(t *testing.T) {
	f := newFixture(t)
	f.room(t, "Porch", true)
	plain := f.room(t, "Attic", false)

	rooms, err := f.occupancy.ListRoomsWithoutCamera(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, plain.ID, rooms[0].ID)
}
