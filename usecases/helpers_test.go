package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"home-energy/db"
	"home-energy/entities"
	"home-energy/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t.UTC()} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

type recordedEvent struct {
	Type string
	Data interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Data: data})
}

func (p *fakePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func newTestStore(t *testing.T) repositories.Store {
	t.Helper()
	database, err := db.OpenMemory("usecases_" + t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.GetDB().DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repositories.NewStore(database)
}

// at builds a UTC time on 2025-03-10.
func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	store     repositories.Store
	clock     *fakeClock
	events    *fakePublisher
	devices   *DeviceUseCase
	occupancy *OccupancyUseCase
	energy    *EnergyUseCase
	dashboard *DashboardUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newTestStore(t)
	clock := newFakeClock(at(9, 0))
	events := &fakePublisher{}
	log := zap.NewNop()
	return &fixture{
		store:     store,
		clock:     clock,
		events:    events,
		devices:   NewDeviceUseCase(store, clock, events, log),
		occupancy: NewOccupancyUseCase(store, clock, events, log),
		energy:    NewEnergyUseCase(store, clock, events, log),
		dashboard: NewDashboardUseCase(store, clock),
	}
}

func (f *fixture) room(t *testing.T, name string, hasCamera bool) *entities.Room {
	t.Helper()
	r := &entities.Room{Name: name, HasCamera: hasCamera}
	require.NoError(t, f.devices.CreateRoom(context.Background(), r))
	return r
}

// device creates a device at the clock's current time and then advances the
// clock by a second so creation order is unambiguous.
func (f *fixture) device(t *testing.T, roomID, name, deviceType string, watts float64) *entities.Device {
	t.Helper()
	d := &entities.Device{RoomID: roomID, Name: name, DeviceType: deviceType, PowerRating: watts}
	require.NoError(t, f.devices.CreateDevice(context.Background(), d))
	f.clock.Set(f.clock.Now().Add(time.Second))
	return d
}
