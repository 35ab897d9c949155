// Package occupancy provides occupancy signals for rooms that have no camera.
package occupancy

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"home-energy/entities"

	"go.uber.org/zap"
)

// Source decides whether a room is occupied right now.
type Source interface {
	Sample(room entities.Room) bool
}

// RandomSource reports a room occupied with probability 1/3.
type RandomSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomSource(seed uint64) *RandomSource {
	return &RandomSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *RandomSource) Sample(entities.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(3) == 0
}

// SourceFunc adapts a function to Source.
type SourceFunc func(room entities.Room) bool

func (f SourceFunc) Sample(room entities.Room) bool { return f(room) }

// RoomLister lists the rooms the simulator covers.
type RoomLister interface {
	ListRoomsWithoutCamera(ctx context.Context) ([]entities.Room, error)
}

// Reporter receives the sampled occupancy.
type Reporter interface {
	Report(ctx context.Context, roomID string, occupied bool, at time.Time) error
}

type RoomSample struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Occupied bool   `json:"is_occupied"`
	Error    string `json:"error,omitempty"`
}

// Simulator samples every camera-less room once per run and reports the result.
type Simulator struct {
	rooms    RoomLister
	reporter Reporter
	source   Source
	log      *zap.Logger
}

func NewSimulator(rooms RoomLister, reporter Reporter, source Source, log *zap.Logger) *Simulator {
	return &Simulator{rooms: rooms, reporter: reporter, source: source, log: log.Named("simulator")}
}

// Run samples each room and forwards the reading. A room that fails is
// logged and the run continues.
func (s *Simulator) Run(ctx context.Context, at time.Time) ([]RoomSample, error) {
	rooms, err := s.rooms.ListRoomsWithoutCamera(ctx)
	if err != nil {
		return nil, err
	}

	samples := make([]RoomSample, 0, len(rooms))
	for _, room := range rooms {
		sample := RoomSample{RoomID: room.ID, RoomName: room.Name, Occupied: s.source.Sample(room)}
		if err := s.reporter.Report(ctx, room.ID, sample.Occupied, at); err != nil {
			s.log.Warn("simulated occupancy failed", zap.String("room_id", room.ID), zap.Error(err))
			sample.Error = err.Error()
		}
		samples = append(samples, sample)
	}
	s.log.Info("simulated occupancy", zap.Int("rooms", len(samples)))
	return samples, nil
}
