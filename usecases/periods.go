package usecases

import (
	"encoding/json"
	"fmt"
	"time"
)

// Hour identifies a wall-clock hour by the unix time of its start (UTC).
type Hour int64

func HourOf(t time.Time) Hour {
	return Hour(t.UTC().Truncate(time.Hour).Unix())
}

func (h Hour) Start() time.Time { return time.Unix(int64(h), 0).UTC() }
func (h Hour) End() time.Time   { return h.Start().Add(time.Hour) }
func (h Hour) Prev() Hour       { return h - Hour(time.Hour/time.Second) }
func (h Hour) Day() Day         { return DayOf(h.Start()) }
func (h Hour) String() string   { return h.Start().Format(time.RFC3339) }

func (h Hour) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// Day is a UTC calendar date.
type Day struct {
	year  int
	month time.Month
	day   int
}

func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{year: y, month: m, day: d}
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrValidation, s)
	}
	return DayOf(t), nil
}

func (d Day) Start() time.Time  { return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC) }
func (d Day) End() time.Time    { return d.Start().AddDate(0, 0, 1) }
func (d Day) Before(o Day) bool { return d.Start().Before(o.Start()) }
func (d Day) IsZero() bool      { return d.year == 0 }
func (d Day) String() string    { return d.Start().Format("2006-01-02") }

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
