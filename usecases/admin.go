package usecases

import (
	"context"
	"math/rand/v2"
	"time"

	"home-energy/entities"
	"home-energy/repositories"

	"go.uber.org/zap"
)

const maxSampleDays = 30

// AdminUseCase seeds and clears the hourly ledger for demos.
type AdminUseCase struct {
	store repositories.Store
	clock Clock
	rand  *rand.Rand
	log   *zap.Logger
}

func NewAdminUseCase(store repositories.Store, clock Clock, log *zap.Logger) *AdminUseCase {
	seed := uint64(clock.Now().UnixNano())
	return &AdminUseCase{
		store: store,
		clock: clock,
		rand:  rand.New(rand.NewPCG(seed, seed>>1)),
		log:   log.Named("admin"),
	}
}

type SampleDataResult struct {
	LogsCreated   int `json:"logs_created"`
	Duplicates    int `json:"duplicates"`
	DaysGenerated int `json:"days_generated"`
	Devices       int `json:"devices"`
}

// GenerateSampleData backfills hourly records for every device over the
// given number of whole days before today. Hours that already have a record
// are left alone.
func (uc *AdminUseCase) GenerateSampleData(ctx context.Context, days int) (*SampleDataResult, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxSampleDays {
		days = maxSampleDays
	}
	devices, err := uc.store.Devices().GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list devices")
	}

	res := &SampleDataResult{DaysGenerated: days, Devices: len(devices)}
	today := DayOf(uc.clock.Now()).Start()
	for d := days; d >= 1; d-- {
		dayStart := today.AddDate(0, 0, -d)
		for h := 0; h < 24; h++ {
			hourStart := dayStart.Add(time.Duration(h) * time.Hour)
			for _, dev := range devices {
				minutes := uc.sampleMinutes(dev, h)
				rec := &entities.HourlyEnergyRecord{
					DeviceID:    dev.ID,
					RoomID:      dev.RoomID,
					HourStart:   hourStart,
					PowerRating: dev.PowerRating,
					MinutesOn:   minutes,
					EnergyWh:    EnergyWh(dev.PowerRating, minutes),
					WasOn:       minutes > 0,
				}
				inserted, err := uc.store.HourlyRecords().Insert(ctx, rec)
				if err != nil {
					return res, storeErr(err, "insert sample record")
				}
				if inserted {
					res.LogsCreated++
				} else {
					res.Duplicates++
				}
			}
		}
	}

	uc.log.Info("sample data generated",
		zap.Int("days", res.DaysGenerated),
		zap.Int("devices", res.Devices),
		zap.Int("records", res.LogsCreated))
	return res, nil
}

// sampleMinutes favours evening use and keeps lights mostly off in daylight.
func (uc *AdminUseCase) sampleMinutes(dev entities.Device, hour int) float64 {
	chance := 0.3
	switch {
	case hour >= 18 && hour <= 23:
		chance = 0.8
	case hour >= 7 && hour < 18:
		chance = 0.5
		if dev.IsLight() {
			chance = 0.2
		}
	}
	if uc.rand.Float64() >= chance {
		return 0
	}
	return float64(uc.rand.IntN(60) + 1)
}

// ResetHourlyRecords deletes the whole hourly ledger.
func (uc *AdminUseCase) ResetHourlyRecords(ctx context.Context) (int64, error) {
	n, err := uc.store.HourlyRecords().DeleteAll(ctx)
	if err != nil {
		return 0, storeErr(err, "delete hourly records")
	}
	uc.log.Warn("hourly records reset", zap.Int64("deleted", n))
	return n, nil
}
