// Package mqtt feeds occupancy readings published on an MQTT broker into the
// occupancy controller.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNotAnOccupancyTopic = errors.New("not an occupancy topic")

// Message is the part of a broker message the ingestor reads.
type Message interface {
	Topic() string
	Payload() []byte
}

// OccupancyReporter applies an occupancy reading for a room.
type OccupancyReporter interface {
	Report(ctx context.Context, roomID string, occupied bool, at time.Time) error
}

type Ingestor struct {
	Reporter    OccupancyReporter
	TopicPrefix string
	Log         *zap.Logger
}

// SubscriptionTopic is the wildcard topic covering every room.
func (i *Ingestor) SubscriptionTopic() string {
	return strings.TrimSuffix(i.prefix(), "/") + "/rooms/+/occupancy"
}

func (i *Ingestor) prefix() string {
	if i.TopicPrefix == "" {
		return "home"
	}
	return i.TopicPrefix
}

// HandleMessage decodes one reading and reports it. Undecodable messages are
// logged and dropped.
func (i *Ingestor) HandleMessage(ctx context.Context, msg Message, receivedAt time.Time) {
	log := i.Log
	if log == nil {
		log = zap.NewNop()
	}
	topic := msg.Topic()

	roomID, err := ParseRoomID(i.prefix(), topic)
	if err != nil {
		if !errors.Is(err, ErrNotAnOccupancyTopic) {
			log.Warn("occupancy topic parse failed", zap.String("topic", topic), zap.Error(err))
		}
		return
	}

	occupied, at, err := ParsePayload(msg.Payload())
	if err != nil {
		log.Warn("occupancy payload rejected", zap.String("topic", topic), zap.Error(err))
		return
	}
	if at.IsZero() {
		at = receivedAt
	}

	if err := i.Reporter.Report(ctx, roomID, occupied, at.UTC()); err != nil {
		log.Error("occupancy report failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}
	log.Debug("occupancy ingested", zap.String("room_id", roomID), zap.Bool("occupied", occupied))
}

// ParseRoomID extracts the room id from <prefix>/rooms/<roomId>/occupancy.
func ParseRoomID(prefix, topic string) (string, error) {
	head := strings.TrimSuffix(prefix, "/") + "/rooms/"
	if !strings.HasPrefix(topic, head) || !strings.HasSuffix(topic, "/occupancy") {
		return "", ErrNotAnOccupancyTopic
	}
	id := strings.TrimSuffix(strings.TrimPrefix(topic, head), "/occupancy")
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid room id %q", id)
	}
	return id, nil
}

type occupancyPayload struct {
	Occupied  *bool      `json:"occupied"`
	Timestamp *time.Time `json:"timestamp"`
}

// ParsePayload accepts {"occupied":bool,"timestamp":RFC3339} (timestamp
// optional) or a bare true, false, 1 or 0. A zero time means the payload
// carried none.
func ParsePayload(payload []byte) (bool, time.Time, error) {
	raw := strings.TrimSpace(string(payload))
	switch strings.ToLower(raw) {
	case "true", "1":
		return true, time.Time{}, nil
	case "false", "0":
		return false, time.Time{}, nil
	case "":
		return false, time.Time{}, errors.New("empty payload")
	}

	var p occupancyPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return false, time.Time{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.Occupied == nil {
		return false, time.Time{}, errors.New("payload has no occupied field")
	}
	var at time.Time
	if p.Timestamp != nil {
		at = p.Timestamp.UTC()
	}
	return *p.Occupied, at, nil
}
