package usecases

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"home-energy/cache"
	"home-energy/entities"
	"home-energy/insights"
	"home-energy/metrics"
	"home-energy/repositories"

	"go.uber.org/zap"
)

const (
	InsightPredictions     = "predictions"
	InsightAnomalies       = "anomalies"
	InsightCostEstimation  = "cost_estimation"
	InsightRecommendations = "recommendations"
)

const (
	historyDays       = 30
	anomalyWindowDays = 7
	anomalySigmas     = 2.0
	maxDaysAhead      = 30
)

// InsightUseCase aggregates the hourly ledger into the numbers behind each
// insight and asks a text generator to comment on them. The numbers are
// always returned; the text falls back to a labelled message when the
// generator fails.
type InsightUseCase struct {
	store     repositories.Store
	clock     Clock
	generator insights.TextGenerator
	cache     *cache.TextCache
	log       *zap.Logger
}

func NewInsightUseCase(store repositories.Store, clock Clock, generator insights.TextGenerator, textCache *cache.TextCache, log *zap.Logger) *InsightUseCase {
	if generator == nil {
		generator = insights.Disabled{}
	}
	return &InsightUseCase{
		store:     store,
		clock:     clock,
		generator: generator,
		cache:     textCache,
		log:       log.Named("insights"),
	}
}

type DailyUsage struct {
	Date Day     `json:"date"`
	KWh  float64 `json:"kwh"`
}

type Prediction struct {
	DaysAhead       int          `json:"days_ahead"`
	History         []DailyUsage `json:"history"`
	AverageDailyKWh float64      `json:"average_daily_kwh"`
	PeakDay         *DailyUsage  `json:"peak_day,omitempty"`
	PredictedKWh    float64      `json:"predicted_kwh"`
	Insight         string       `json:"insight"`
}

type HourUsage struct {
	Hour    Hour    `json:"hour"`
	TotalWh float64 `json:"total_wh"`
}

type AnomalyReport struct {
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
	MeanWh      float64     `json:"mean_wh"`
	StdDevWh    float64     `json:"stddev_wh"`
	ThresholdWh float64     `json:"threshold_wh"`
	Anomalies   []HourUsage `json:"anomalies"`
	Insight     string      `json:"insight"`
}

type CostEstimate struct {
	RatePerKWh           float64 `json:"rate_per_kwh"`
	PeriodDays           int     `json:"period_days"`
	ConsumedKWh          float64 `json:"consumed_kwh"`
	EstimatedCost        float64 `json:"estimated_cost"`
	DailyAverageCost     float64 `json:"daily_average_cost"`
	ProjectedMonthlyCost float64 `json:"projected_monthly_cost"`
	CurrentHourlyCost    float64 `json:"current_hourly_cost"`
	Insight              string  `json:"insight"`
}

type RoomSummary struct {
	RoomID        string  `json:"room_id"`
	RoomName      string  `json:"room_name"`
	IsOccupied    bool    `json:"is_occupied"`
	Devices       int     `json:"devices"`
	DevicesOn     int     `json:"devices_on"`
	CurrentWatts  float64 `json:"current_watts"`
	WeeklyKWh     float64 `json:"weekly_kwh"`
	WastedWatts   float64 `json:"wasted_watts"`
	LightsKeptOn  int     `json:"lights_on"`
	SavingsEvents int     `json:"savings_events"`
}

type Recommendations struct {
	Rooms   []RoomSummary `json:"rooms"`
	Insight string        `json:"insight"`
}

// Predictions projects consumption for the next daysAhead days from the
// average of the last 30 days.
func (uc *InsightUseCase) Predictions(ctx context.Context, daysAhead int) (*Prediction, error) {
	if daysAhead <= 0 {
		daysAhead = 7
	}
	if daysAhead > maxDaysAhead {
		daysAhead = maxDaysAhead
	}

	history, err := uc.dailyHistory(ctx, historyDays)
	if err != nil {
		return nil, err
	}

	p := &Prediction{DaysAhead: daysAhead, History: history}
	if len(history) > 0 {
		var total float64
		for i, d := range history {
			total += d.KWh
			if p.PeakDay == nil || d.KWh > p.PeakDay.KWh {
				p.PeakDay = &history[i]
			}
		}
		p.AverageDailyKWh = total / float64(len(history))
		p.PredictedKWh = p.AverageDailyKWh * float64(daysAhead)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Daily household consumption over the last %d days with data (kWh):\n", len(history))
	for _, d := range history {
		fmt.Fprintf(&b, "%s: %.3f\n", d.Date, d.KWh)
	}
	fmt.Fprintf(&b, "Average %.3f kWh/day. A flat projection gives %.3f kWh for the next %d days. "+
		"Comment on the trend and whether the projection looks realistic.", p.AverageDailyKWh, p.PredictedKWh, daysAhead)
	p.Insight = uc.narrate(ctx, InsightPredictions, b.String())
	return p, nil
}

// Anomalies flags hours of the last week whose total consumption lies more
// than two standard deviations above the mean.
func (uc *InsightUseCase) Anomalies(ctx context.Context) (*AnomalyReport, error) {
	to := uc.clock.Now().UTC()
	from := to.Add(-anomalyWindowDays * 24 * time.Hour)
	byHour := map[Hour]float64{}
	err := uc.store.HourlyRecords().ScanBetween(ctx, from, to, "", func(page []entities.HourlyEnergyRecord) error {
		for _, r := range page {
			byHour[HourOf(r.HourStart)] += r.EnergyWh
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "list hourly records")
	}

	hours := make([]HourUsage, 0, len(byHour))
	for h, wh := range byHour {
		hours = append(hours, HourUsage{Hour: h, TotalWh: wh})
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Hour < hours[j].Hour })

	report := &AnomalyReport{PeriodStart: from, PeriodEnd: to, Anomalies: []HourUsage{}}
	if len(hours) > 0 {
		values := make([]float64, len(hours))
		for i, h := range hours {
			values[i] = h.TotalWh
		}
		report.MeanWh, report.StdDevWh = meanStdDev(values)
		report.ThresholdWh = report.MeanWh + anomalySigmas*report.StdDevWh
		for _, h := range hours {
			if h.TotalWh > report.ThresholdWh {
				report.Anomalies = append(report.Anomalies, h)
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hourly consumption over the last %d days: %d hours recorded, mean %.1f Wh, standard deviation %.1f Wh.\n",
		anomalyWindowDays, len(hours), report.MeanWh, report.StdDevWh)
	if len(report.Anomalies) == 0 {
		b.WriteString("No hour exceeded the mean by more than two standard deviations.\n")
	}
	for _, a := range report.Anomalies {
		fmt.Fprintf(&b, "Unusual hour %s: %.1f Wh\n", a.Hour, a.TotalWh)
	}
	b.WriteString("Suggest likely causes and what to check.")
	report.Insight = uc.narrate(ctx, InsightAnomalies, b.String())
	return report, nil
}

// CostEstimation prices the last 30 days of consumption at a flat rate.
func (uc *InsightUseCase) CostEstimation(ctx context.Context, ratePerKWh float64) (*CostEstimate, error) {
	if ratePerKWh <= 0 || math.IsNaN(ratePerKWh) || math.IsInf(ratePerKWh, 0) {
		return nil, validation("rate_per_kwh must be greater than zero")
	}
	history, err := uc.dailyHistory(ctx, historyDays)
	if err != nil {
		return nil, err
	}
	devices, err := uc.store.Devices().GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list devices")
	}

	est := &CostEstimate{RatePerKWh: ratePerKWh, PeriodDays: len(history)}
	for _, d := range history {
		est.ConsumedKWh += d.KWh
	}
	est.EstimatedCost = est.ConsumedKWh * ratePerKWh
	if est.PeriodDays > 0 {
		est.DailyAverageCost = est.EstimatedCost / float64(est.PeriodDays)
	}
	est.ProjectedMonthlyCost = est.DailyAverageCost * 30
	est.CurrentHourlyCost = currentPower(devices) / 1000 * ratePerKWh

	prompt := fmt.Sprintf("Over %d days the home used %.3f kWh, costing %.2f at %.4f per kWh "+
		"(%.2f per day, %.2f projected per month). Devices currently on cost %.4f per hour. "+
		"Give concrete ways to lower the bill.",
		est.PeriodDays, est.ConsumedKWh, est.EstimatedCost, ratePerKWh,
		est.DailyAverageCost, est.ProjectedMonthlyCost, est.CurrentHourlyCost)
	est.Insight = uc.narrate(ctx, InsightCostEstimation, prompt)
	return est, nil
}

// Recommendations summarises each room's current draw and weekly use.
func (uc *InsightUseCase) Recommendations(ctx context.Context) (*Recommendations, error) {
	rooms, err := uc.store.Rooms().GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list rooms")
	}
	devices, err := uc.store.Devices().GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list devices")
	}
	to := uc.clock.Now().UTC()
	weekly := map[string]float64{}
	err = uc.store.HourlyRecords().ScanBetween(ctx, to.Add(-anomalyWindowDays*24*time.Hour), to, "", func(page []entities.HourlyEnergyRecord) error {
		for _, r := range page {
			weekly[r.RoomID] += r.EnergyWh / 1000
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "list hourly records")
	}
	savings, err := uc.store.Savings().CountByRoom(ctx)
	if err != nil {
		return nil, storeErr(err, "count energy savings")
	}

	byRoom := map[string]*RoomSummary{}
	out := &Recommendations{Rooms: make([]RoomSummary, 0, len(rooms))}
	for _, r := range rooms {
		byRoom[r.ID] = &RoomSummary{RoomID: r.ID, RoomName: r.Name, IsOccupied: r.IsOccupied}
	}
	for _, d := range devices {
		s, ok := byRoom[d.RoomID]
		if !ok {
			continue
		}
		s.Devices++
		if d.IsOn {
			s.DevicesOn++
			s.CurrentWatts += d.PowerRating
			if d.IsLight() {
				s.LightsKeptOn++
			}
			if !s.IsOccupied {
				s.WastedWatts += d.PowerRating
			}
		}
	}
	for id, s := range byRoom {
		s.WeeklyKWh = weekly[id]
		s.SavingsEvents = savings[id]
	}
	for _, r := range rooms {
		out.Rooms = append(out.Rooms, *byRoom[r.ID])
	}
	sort.SliceStable(out.Rooms, func(i, j int) bool { return out.Rooms[i].WeeklyKWh > out.Rooms[j].WeeklyKWh })

	var b strings.Builder
	b.WriteString("Rooms in the home, highest weekly consumption first:\n")
	for _, s := range out.Rooms {
		occupancy := "empty"
		if s.IsOccupied {
			occupancy = "occupied"
		}
		fmt.Fprintf(&b, "%s (%s): %d/%d devices on drawing %.0f W, %.3f kWh this week, %d automatic switch-offs\n",
			s.RoomName, occupancy, s.DevicesOn, s.Devices, s.CurrentWatts, s.WeeklyKWh, s.SavingsEvents)
	}
	b.WriteString("Recommend the three most effective changes.")
	out.Insight = uc.narrate(ctx, InsightRecommendations, b.String())
	return out, nil
}

// CacheStats exposes the insight text cache counters.
func (uc *InsightUseCase) CacheStats() map[string]interface{} {
	if uc.cache == nil {
		return map[string]interface{}{"enabled": false}
	}
	stats := uc.cache.GetCacheStats()
	stats["enabled"] = true
	return stats
}

func (uc *InsightUseCase) dailyHistory(ctx context.Context, days int) ([]DailyUsage, error) {
	today := DayOf(uc.clock.Now())
	from := today.Start().AddDate(0, 0, -days)
	byDay := map[Day]float64{}
	err := uc.store.HourlyRecords().ScanBetween(ctx, from, today.End(), "", func(page []entities.HourlyEnergyRecord) error {
		for _, r := range page {
			byDay[DayOf(r.HourStart)] += r.EnergyWh / 1000
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "list hourly records")
	}

	out := make([]DailyUsage, 0, len(byDay))
	for d, kwh := range byDay {
		out = append(out, DailyUsage{Date: d, KWh: kwh})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// narrate returns generated text for prompt, or the fallback text when the
// generator fails. Fallbacks are not cached.
func (uc *InsightUseCase) narrate(ctx context.Context, kind, prompt string) string {
	key := kind + "\x00" + prompt
	if uc.cache != nil {
		if text, ok := uc.cache.Get(key); ok {
			metrics.IncInsight(kind, "cached")
			return text
		}
	}

	text, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		uc.log.Warn("insight generation failed", zap.String("kind", kind), zap.Error(err))
		metrics.IncInsight(kind, "fallback")
		return insights.Fallback(err)
	}
	if uc.cache != nil {
		uc.cache.Set(key, text)
	}
	metrics.IncInsight(kind, metrics.ResultSuccess)
	return text
}
