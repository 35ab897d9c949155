package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMsg struct {
	topic   string
	payload []byte
}

func (m fakeMsg) Topic() string   { return m.topic }
func (m fakeMsg) Payload() []byte { return m.payload }

type report struct {
	roomID   string
	occupied bool
	at       time.Time
}

type fakeReporter struct {
	reports []report
	err     error
}

func (r *fakeReporter) Report(_ context.Context, roomID string, occupied bool, at time.Time) error {
	r.reports = append(r.reports, report{roomID, occupied, at})
	return r.err
}

func TestParseRoomID(t *testing.T) {
	tests := []struct {
		topic   string
		want    string
		wantErr bool
	}{
		{"home/rooms/abc/occupancy", "abc", false},
		{"home/rooms//occupancy", "", true},
		{"home/rooms/a/b/occupancy", "", true},
		{"home/rooms/abc/state", "", true},
		{"other/rooms/abc/occupancy", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, err := ParseRoomID("home", tt.topic)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRoomID("home", "home/devices/x")
	assert.ErrorIs(t, err, ErrNotAnOccupancyTopic)
}

func TestParsePayload(t *testing.T) {
	ts := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, raw := range []string{"true", "TRUE", " 1 "} {
		occupied, at, err := ParsePayload([]byte(raw))
		require.NoError(t, err, raw)
		assert.True(t, occupied, raw)
		assert.True(t, at.IsZero(), raw)
	}
	occupied, _, err := ParsePayload([]byte("0"))
	require.NoError(t, err)
	assert.False(t, occupied)

	occupied, at, err := ParsePayload([]byte(`{"occupied":true,"timestamp":"2025-03-10T13:00:00+01:00"}`))
	require.NoError(t, err)
	assert.True(t, occupied)
	assert.True(t, at.Equal(ts))
	assert.Equal(t, time.UTC, at.Location())

	for _, bad := range []string{"", "maybe", `{"timestamp":"2025-03-10T12:00:00Z"}`, `{"occupied":"yes"}`} {
		_, _, err := ParsePayload([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestHandleMessage(t *testing.T) {
	rep := &fakeReporter{}
	in := &Ingestor{Reporter: rep, TopicPrefix: "flat"}
	assert.Equal(t, "flat/rooms/+/occupancy", in.SubscriptionTopic())

	received := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	in.HandleMessage(context.Background(), fakeMsg{"flat/rooms/r1/occupancy", []byte("false")}, received)
	in.HandleMessage(context.Background(), fakeMsg{"flat/rooms/r2/occupancy", []byte(`{"occupied":true,"timestamp":"2025-03-10T07:30:00Z"}`)}, received)
	in.HandleMessage(context.Background(), fakeMsg{"flat/rooms/r3/occupancy", []byte("garbage")}, received)
	in.HandleMessage(context.Background(), fakeMsg{"flat/other", []byte("true")}, received)

	require.Len(t, rep.reports, 2)
	assert.Equal(t, report{"r1", false, received}, rep.reports[0])
	assert.Equal(t, "r2", rep.reports[1].roomID)
	assert.True(t, rep.reports[1].occupied)
	assert.True(t, rep.reports[1].at.Equal(received.Add(-30*time.Minute)))
}

func TestHandleMessageReporterError(t *testing.T) {
	rep := &fakeReporter{err: errors.New("boom")}
	in := &Ingestor{Reporter: rep}
	assert.NotPanics(t, func() {
		in.HandleMessage(context.Background(), fakeMsg{"home/rooms/r1/occupancy", []byte("1")}, time.Now())
	})
	assert.Len(t, rep.reports, 1)
}
