package usecases

import (
	"context"
	"fmt"
	"time"

	"home-energy/entities"
	"home-energy/metrics"
	"home-energy/repositories"

	"go.uber.org/zap"
)

// MinutesOn reconstructs how long a device was powered during the hour that
// starts at hourStart, knowing only its current state and the time of its
// latest transition. A device that toggled more than once inside the hour is
// misreported; only the latest transition is visible.
func MinutesOn(isOn bool, lastStateChange, hourStart time.Time) float64 {
	hourEnd := hourStart.Add(time.Hour)

	var on time.Duration
	switch {
	case isOn && lastStateChange.After(hourStart):
		// switched on mid-hour
		on = hourEnd.Sub(lastStateChange)
	case isOn:
		on = time.Hour
	case lastStateChange.After(hourStart) && lastStateChange.Before(hourEnd):
		// switched off mid-hour
		on = lastStateChange.Sub(hourStart)
	}

	if on < 0 {
		on = 0
	}
	if on > time.Hour {
		on = time.Hour
	}
	return on.Minutes()
}

// EnergyWh converts a power rating in watts and minutes of use to watt-hours.
func EnergyWh(powerRating, minutesOn float64) float64 {
	return powerRating * minutesOn / 60
}

// EnergyUseCase integrates device state into the hourly energy ledger.
type EnergyUseCase struct {
	store  repositories.Store
	clock  Clock
	events EventPublisher
	log    *zap.Logger
}

func NewEnergyUseCase(store repositories.Store, clock Clock, events EventPublisher, log *zap.Logger) *EnergyUseCase {
	return &EnergyUseCase{
		store:  store,
		clock:  clock,
		events: publisherOrNoop(events),
		log:    log.Named("integrator"),
	}
}

// DeviceFailure is a device whose record could not be written.
type DeviceFailure struct {
	DeviceID string `json:"device_id"`
	Error    string `json:"error"`
}

// IntegrationReport summarises one hourly run.
type IntegrationReport struct {
	HourStart     time.Time       `json:"hour_start"`
	HourEnd       time.Time       `json:"hour_end"`
	Devices       int             `json:"devices"`
	Written       int             `json:"written"`
	Duplicates    int             `json:"duplicates"`
	Failed        int             `json:"failed"`
	TotalEnergyWh float64         `json:"total_energy_wh"`
	Failures      []DeviceFailure `json:"failures,omitempty"`
}

// RunPreviousHour integrates the most recently completed hour.
func (uc *EnergyUseCase) RunPreviousHour(ctx context.Context) (*IntegrationReport, error) {
	return uc.RunHourlyIntegration(ctx, HourOf(uc.clock.Now()).Prev().Start())
}

// RunHourlyIntegration writes one HourlyEnergyRecord per device for the hour
// containing hourStart. The hour must have ended. A device whose record
// cannot be written is logged and skipped; a record that already exists for
// the device and hour is left untouched.
func (uc *EnergyUseCase) RunHourlyIntegration(ctx context.Context, hourStart time.Time) (*IntegrationReport, error) {
	hour := HourOf(hourStart)
	if hour.End().After(uc.clock.Now()) {
		return nil, validation(fmt.Sprintf("hour %s has not ended yet", hour))
	}

	started := time.Now()
	devices, err := uc.store.Devices().GetAll(ctx)
	if err != nil {
		metrics.ObserveIntegration(metrics.ResultError, time.Since(started), 0, 0, 0)
		return nil, storeErr(err, "list devices")
	}

	report := &IntegrationReport{
		HourStart: hour.Start(),
		HourEnd:   hour.End(),
		Devices:   len(devices),
	}
	for _, d := range devices {
		minutes := MinutesOn(d.IsOn, d.LastStateChange, hour.Start())
		rec := &entities.HourlyEnergyRecord{
			DeviceID:    d.ID,
			RoomID:      d.RoomID,
			HourStart:   hour.Start(),
			PowerRating: d.PowerRating,
			MinutesOn:   minutes,
			EnergyWh:    EnergyWh(d.PowerRating, minutes),
			WasOn:       minutes > 0,
		}

		inserted, err := uc.store.HourlyRecords().Insert(ctx, rec)
		if err != nil {
			uc.log.Error("write hourly record",
				zap.String("device_id", d.ID),
				zap.Time("hour_start", hour.Start()),
				zap.Error(err))
			report.Failed++
			report.Failures = append(report.Failures, DeviceFailure{DeviceID: d.ID, Error: err.Error()})
			continue
		}
		if !inserted {
			report.Duplicates++
			continue
		}
		report.Written++
		report.TotalEnergyWh += rec.EnergyWh
	}

	result := metrics.ResultSuccess
	if report.Failed > 0 {
		result = metrics.ResultPartial
	}
	metrics.ObserveIntegration(result, time.Since(started), report.Written, report.Duplicates, report.Failed)
	uc.log.Info("hourly integration finished",
		zap.Time("hour_start", report.HourStart),
		zap.Int("devices", report.Devices),
		zap.Int("written", report.Written),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", report.Failed),
		zap.Float64("energy_wh", report.TotalEnergyWh))
	uc.events.Publish(EventHourlyRun, report)
	return report, nil
}
