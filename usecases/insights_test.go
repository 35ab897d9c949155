package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"home-energy/cache"
	"home-energy/insights"
	"home-energy/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("insight #%d", g.calls), nil
}

func newInsightUseCase(f *fixture, gen insights.TextGenerator, c *cache.TextCache) *InsightUseCase {
	return NewInsightUseCase(f.store, f.clock, gen, c, zap.NewNop())
}

func TestPredictionsAverageDailyUsage(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "Office", false)
	pc := f.device(t, room.ID, "PC", "computer", 500)
	f.record(t, pc, at(10, 0).AddDate(0, 0, -2), 60)
	f.record(t, pc, at(11, 0).AddDate(0, 0, -2), 60)
	f.record(t, pc, at(10, 0).AddDate(0, 0, -1), 60)

	gen := &fakeGenerator{}
	uc := newInsightUseCase(f, gen, nil)
	p, err := uc.Predictions(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, p.DaysAhead)
	require.Len(t, p.History, 2)
	assert.InDelta(t, 0.75, p.AverageDailyKWh, 1e-9)
	assert.InDelta(t, 5.25, p.PredictedKWh, 1e-9)
	require.NotNil(t, p.PeakDay)
	assert.Equal(t, "2025-03-08", p.PeakDay.Date.String())
	assert.Equal(t, "insight #1", p.Insight)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "2025-03-08: 1.000")

	capped, err := uc.Predictions(context.Background(), 365)
	require.NoError(t, err)
	assert.Equal(t, 30, capped.DaysAhead)
}

func TestPredictionsHistoryReadsPastScanLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.room(t, "Plant", false)
	for i := 0; i < 7; i++ {
		f.device(t, room.ID, fmt.Sprintf("Pump %d", i), "pump", 100)
	}
	res, err := NewAdminUseCase(f.store, f.clock, zap.NewNop()).GenerateSampleData(ctx, 30)
	require.NoError(t, err)
	require.Greater(t, res.LogsCreated, repositories.ScanLimit)

	uc := newInsightUseCase(f, &fakeGenerator{}, nil)
	p, err := uc.Predictions(ctx, 7)
	require.NoError(t, err)
	require.Len(t, p.History, 30)
	assert.Equal(t, "2025-02-08", p.History[0].Date.String())
	assert.Equal(t, "2025-03-09", p.History[29].Date.String())

	var kwh float64
	for _, d := range p.History {
		kwh += d.KWh
	}
	totalWh, err := f.store.HourlyRecords().SumEnergyWh(ctx)
	require.NoError(t, err)
	assert.InDelta(t, totalWh/1000, kwh, 1e-6)
}

func TestAnomaliesFlagsOutlierHour(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "Workshop", false)
	lamp := f.device(t, room.ID, "Lamp", "light", 100)
	heater := f.device(t, room.ID, "Heater", "heater", 1000)
	for h := 0; h < 10; h++ {
		f.record(t, lamp, at(h, 0), 60)
	}
	f.record(t, heater, at(11, 0), 60)
	f.clock.Set(at(12, 30))

	uc := newInsightUseCase(f, &fakeGenerator{}, nil)
	report, err := uc.Anomalies(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2000.0/11, report.MeanWh, 1e-9)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, HourOf(at(11, 0)), report.Anomalies[0].Hour)
	assert.InDelta(t, 1000.0, report.Anomalies[0].TotalWh, 1e-9)
	assert.Less(t, report.ThresholdWh, 1000.0)
}

func TestAnomaliesWithoutData(t *testing.T) {
	f := newFixture(t)
	uc := newInsightUseCase(f, &fakeGenerator{}, nil)
	report, err := uc.Anomalies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, report.Anomalies)
	assert.Empty(t, report.Anomalies)
	assert.Zero(t, report.MeanWh)
}

func TestCostEstimation(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "Laundry", false)
	washer := f.device(t, room.ID, "Washer", "appliance", 2000)
	f.record(t, washer, at(8, 0).AddDate(0, 0, -1), 60)
	f.record(t, washer, at(8, 0), 30)

	uc := newInsightUseCase(f, &fakeGenerator{}, nil)
	est, err := uc.CostEstimation(context.Background(), 0.2)
	require.NoError(t, err)
	assert.Equal(t, 2, est.PeriodDays)
	assert.InDelta(t, 3.0, est.ConsumedKWh, 1e-9)
	assert.InDelta(t, 0.6, est.EstimatedCost, 1e-9)
	assert.InDelta(t, 0.3, est.DailyAverageCost, 1e-9)
	assert.InDelta(t, 9.0, est.ProjectedMonthlyCost, 1e-9)
	// the washer is still on
	assert.InDelta(t, 0.4, est.CurrentHourlyCost, 1e-9)

	for _, rate := range []float64{0, -1} {
		_, err := uc.CostEstimation(context.Background(), rate)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestRecommendationsOrderedByWeeklyUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiet := f.room(t, "Quiet", false)
	busy := f.room(t, "Busy", false)
	f.device(t, quiet.ID, "Lamp", "light", 40)
	oven := f.device(t, busy.ID, "Oven", "oven", 2000)
	f.record(t, oven, at(7, 0), 60)
	_, err := f.occupancy.ReportOccupancy(ctx, busy.ID, true, at(9, 5))
	require.NoError(t, err)

	uc := newInsightUseCase(f, &fakeGenerator{}, nil)
	rec, err := uc.Recommendations(ctx)
	require.NoError(t, err)
	require.Len(t, rec.Rooms, 2)
	assert.Equal(t, busy.ID, rec.Rooms[0].RoomID)
	assert.InDelta(t, 2.0, rec.Rooms[0].WeeklyKWh, 1e-9)
	assert.Zero(t, rec.Rooms[0].WastedWatts)

	q := rec.Rooms[1]
	assert.Equal(t, 1, q.LightsKeptOn)
	assert.InDelta(t, 40.0, q.WastedWatts, 1e-9)
	assert.Equal(t, "insight #1", rec.Insight)
}

func TestInsightFallbackIsNotCached(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{err: fmt.Errorf("%w: rate limited", insights.ErrUnavailable)}
	c := cache.NewTextCache(time.Hour)
	uc := newInsightUseCase(f, gen, c)

	p, err := uc.Predictions(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "AI insights not available: rate limited", p.Insight)

	_, err = uc.Predictions(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, 0, c.GetCacheStats()["entries"])
}

func TestInsightTextIsCached(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{}
	uc := newInsightUseCase(f, gen, cache.NewTextCache(time.Hour))

	first, err := uc.Anomalies(context.Background())
	require.NoError(t, err)
	second, err := uc.Anomalies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Insight, second.Insight)
	assert.Equal(t, 1, gen.calls)

	stats := uc.CacheStats()
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, 1, stats["hits"])
}

func TestDisabledGenerator(t *testing.T) {
	f := newFixture(t)
	uc := newInsightUseCase(f, nil, nil)
	rec, err := uc.Recommendations(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.Insight, "AI insights not available: "))
	assert.Equal(t, false, uc.CacheStats()["enabled"])
}
