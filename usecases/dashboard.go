package usecases

import (
	"context"
	"sort"
	"time"

	"home-energy/entities"
	"home-energy/repositories"
)

// DashboardUseCase answers read-only queries over the registry and ledgers.
type DashboardUseCase struct {
	store repositories.Store
	clock Clock
}

func NewDashboardUseCase(store repositories.Store, clock Clock) *DashboardUseCase {
	return &DashboardUseCase{store: store, clock: clock}
}

type DashboardStats struct {
	TotalRooms          int     `json:"total_rooms"`
	OccupiedRooms       int     `json:"occupied_rooms"`
	UnoccupiedRooms     int     `json:"unoccupied_rooms"`
	TotalDevices        int     `json:"total_devices"`
	DevicesOn           int     `json:"devices_on"`
	DevicesOff          int     `json:"devices_off"`
	TotalEnergyConsumed float64 `json:"total_energy_consumed"` // kWh
	TotalEnergySaved    float64 `json:"total_energy_saved"`
	CurrentPowerUsage   float64 `json:"current_power_usage"` // W
}

type TrendPoint struct {
	Date        Day     `json:"date"`
	EnergySaved float64 `json:"energy_saved"`
}

type DeviceReading struct {
	DeviceID   string  `json:"device_id"`
	DeviceName string  `json:"device_name"`
	EnergyWh   float64 `json:"energy_wh"`
	MinutesOn  float64 `json:"minutes_on"`
}

type RoomBreakdown struct {
	RoomID   string          `json:"room_id"`
	RoomName string          `json:"room_name"`
	TotalWh  float64         `json:"total_wh"`
	Devices  []DeviceReading `json:"devices"`
}

type HourBucket struct {
	Hour    Hour            `json:"hour"`
	TotalWh float64         `json:"total_wh"`
	Rooms   []RoomBreakdown `json:"rooms"`
}

type HourlyConsumption struct {
	PeriodStart         time.Time    `json:"period_start"`
	PeriodEnd           time.Time    `json:"period_end"`
	HourlyData          []HourBucket `json:"hourly_data"`
	TotalConsumptionKWh float64      `json:"total_consumption_kwh"`
}

type RoomHourBucket struct {
	Hour    Hour            `json:"hour"`
	TotalWh float64         `json:"total_wh"`
	Devices []DeviceReading `json:"devices"`
}

type RoomConsumption struct {
	RoomID              string           `json:"room_id"`
	RoomName            string           `json:"room_name"`
	PeriodHours         int              `json:"period_hours"`
	PeriodStart         time.Time        `json:"period_start"`
	PeriodEnd           time.Time        `json:"period_end"`
	HourlyConsumption   []RoomHourBucket `json:"hourly_consumption"`
	TotalConsumptionKWh float64          `json:"total_consumption_kwh"`
}

type RoomPower struct {
	RoomID           string  `json:"room_id"`
	RoomName         string  `json:"room_name"`
	PowerConsumption float64 `json:"power_consumption"` // W
}

const (
	defaultRoomWindowHours = 24
	maxRoomWindowHours     = 24 * 31
)

// DashboardStats counts rooms and devices and totals the ledgers. Current
// power usage only looks at devices that are on right now.
func (uc *DashboardUseCase) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	rooms, err := uc.store.Rooms().GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list rooms")
	}
	devices, err := uc.store.Devices().GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list devices")
	}
	consumedWh, err := uc.store.HourlyRecords().SumEnergyWh(ctx)
	if err != nil {
		return nil, storeErr(err, "sum hourly records")
	}
	saved, err := uc.store.Savings().SumEnergySaved(ctx)
	if err != nil {
		return nil, storeErr(err, "sum energy savings")
	}

	stats := &DashboardStats{
		TotalRooms:          len(rooms),
		TotalDevices:        len(devices),
		TotalEnergyConsumed: consumedWh / 1000,
		TotalEnergySaved:    saved,
	}
	for _, r := range rooms {
		if r.IsOccupied {
			stats.OccupiedRooms++
		}
	}
	stats.UnoccupiedRooms = stats.TotalRooms - stats.OccupiedRooms
	stats.CurrentPowerUsage = currentPower(devices)
	for _, d := range devices {
		if d.IsOn {
			stats.DevicesOn++
		}
	}
	stats.DevicesOff = stats.TotalDevices - stats.DevicesOn
	return stats, nil
}

// EnergyTrend sums savings per UTC calendar day, oldest first.
func (uc *DashboardUseCase) EnergyTrend(ctx context.Context) ([]TrendPoint, error) {
	byDay := map[Day]float64{}
	var days []Day
	err := uc.store.Savings().Scan(ctx, func(page []entities.EnergySavingRecord) error {
		for _, s := range page {
			d := DayOf(s.Timestamp)
			if _, ok := byDay[d]; !ok {
				days = append(days, d)
			}
			byDay[d] += s.EnergySaved
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "list energy savings")
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	trend := make([]TrendPoint, 0, len(days))
	for _, d := range days {
		trend = append(trend, TrendPoint{Date: d, EnergySaved: byDay[d]})
	}
	return trend, nil
}

// HourlyConsumption groups hourly records by hour and then by room. With a
// day the window is that UTC day, otherwise the trailing 24 hours.
func (uc *DashboardUseCase) HourlyConsumption(ctx context.Context, day *Day) (*HourlyConsumption, error) {
	var from, to time.Time
	if day != nil && !day.IsZero() {
		from, to = day.Start(), day.End()
	} else {
		to = uc.clock.Now().UTC()
		from = to.Add(-24 * time.Hour)
	}

	recs, err := uc.store.HourlyRecords().ListBetween(ctx, from, to, "")
	if err != nil {
		return nil, storeErr(err, "list hourly records")
	}
	names, err := uc.names(ctx)
	if err != nil {
		return nil, err
	}

	out := &HourlyConsumption{PeriodStart: from, PeriodEnd: to, HourlyData: []HourBucket{}}
	for _, g := range groupByHour(recs) {
		bucket := HourBucket{Hour: g.hour, Rooms: []RoomBreakdown{}}
		for _, rg := range groupByRoom(g.records) {
			rb := RoomBreakdown{RoomID: rg.roomID, RoomName: names.room(rg.roomID), Devices: readings(rg.records, names)}
			for _, r := range rg.records {
				rb.TotalWh += r.EnergyWh
			}
			bucket.TotalWh += rb.TotalWh
			bucket.Rooms = append(bucket.Rooms, rb)
		}
		out.TotalConsumptionKWh += bucket.TotalWh / 1000
		out.HourlyData = append(out.HourlyData, bucket)
	}
	return out, nil
}

// RoomConsumption is HourlyConsumption restricted to one room over the
// trailing hours (24 when hours is not positive).
func (uc *DashboardUseCase) RoomConsumption(ctx context.Context, roomID string, hours int) (*RoomConsumption, error) {
	if roomID == "" {
		return nil, validation("room id is required")
	}
	if hours <= 0 {
		hours = defaultRoomWindowHours
	}
	if hours > maxRoomWindowHours {
		hours = maxRoomWindowHours
	}
	room, err := uc.store.Rooms().GetByID(ctx, roomID)
	if err != nil {
		return nil, storeErr(err, "room "+roomID)
	}

	to := uc.clock.Now().UTC()
	from := to.Add(-time.Duration(hours) * time.Hour)
	recs, err := uc.store.HourlyRecords().ListBetween(ctx, from, to, roomID)
	if err != nil {
		return nil, storeErr(err, "list hourly records")
	}
	names, err := uc.names(ctx)
	if err != nil {
		return nil, err
	}

	out := &RoomConsumption{
		RoomID:            room.ID,
		RoomName:          room.Name,
		PeriodHours:       hours,
		PeriodStart:       from,
		PeriodEnd:         to,
		HourlyConsumption: []RoomHourBucket{},
	}
	for _, g := range groupByHour(recs) {
		bucket := RoomHourBucket{Hour: g.hour, Devices: readings(g.records, names)}
		for _, r := range g.records {
			bucket.TotalWh += r.EnergyWh
		}
		out.TotalConsumptionKWh += bucket.TotalWh / 1000
		out.HourlyConsumption = append(out.HourlyConsumption, bucket)
	}
	return out, nil
}

// RoomPowerUsage is the instantaneous draw of every room, highest first.
func (uc *DashboardUseCase) RoomPowerUsage(ctx context.Context) ([]RoomPower, error) {
	rooms, err := uc.store.Rooms().GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list rooms")
	}
	devices, err := uc.store.Devices().GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list devices")
	}

	byRoom := map[string][]entities.Device{}
	for _, d := range devices {
		byRoom[d.RoomID] = append(byRoom[d.RoomID], d)
	}
	out := make([]RoomPower, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomPower{RoomID: r.ID, RoomName: r.Name, PowerConsumption: currentPower(byRoom[r.ID])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PowerConsumption > out[j].PowerConsumption })
	return out, nil
}

func currentPower(devices []entities.Device) float64 {
	var w float64
	for _, d := range devices {
		if d.IsOn {
			w += d.PowerRating
		}
	}
	return w
}

type nameIndex struct {
	rooms   map[string]string
	devices map[string]string
}

func (uc *DashboardUseCase) names(ctx context.Context) (nameIndex, error) {
	idx := nameIndex{rooms: map[string]string{}, devices: map[string]string{}}
	rooms, err := uc.store.Rooms().GetAll(ctx)
	if err != nil {
		return idx, storeErr(err, "list rooms")
	}
	devices, err := uc.store.Devices().GetAll(ctx)
	if err != nil {
		return idx, storeErr(err, "list devices")
	}
	for _, r := range rooms {
		idx.rooms[r.ID] = r.Name
	}
	for _, d := range devices {
		idx.devices[d.ID] = d.Name
	}
	return idx, nil
}

// room and device fall back to the id for rows deleted since the record was
// written.
func (n nameIndex) room(id string) string {
	if name, ok := n.rooms[id]; ok {
		return name
	}
	return id
}

func (n nameIndex) device(id string) string {
	if name, ok := n.devices[id]; ok {
		return name
	}
	return id
}

type hourGroup struct {
	hour    Hour
	records []entities.HourlyEnergyRecord
}

type roomGroup struct {
	roomID  string
	records []entities.HourlyEnergyRecord
}

// groupByHour keeps first-seen order within a group and sorts groups by hour.
func groupByHour(recs []entities.HourlyEnergyRecord) []hourGroup {
	index := map[Hour]int{}
	var groups []hourGroup
	for _, r := range recs {
		h := HourOf(r.HourStart)
		i, ok := index[h]
		if !ok {
			i = len(groups)
			index[h] = i
			groups = append(groups, hourGroup{hour: h})
		}
		groups[i].records = append(groups[i].records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].hour < groups[j].hour })
	return groups
}

func groupByRoom(recs []entities.HourlyEnergyRecord) []roomGroup {
	index := map[string]int{}
	var groups []roomGroup
	for _, r := range recs {
		i, ok := index[r.RoomID]
		if !ok {
			i = len(groups)
			index[r.RoomID] = i
			groups = append(groups, roomGroup{roomID: r.RoomID})
		}
		groups[i].records = append(groups[i].records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].roomID < groups[j].roomID })
	return groups
}

func readings(recs []entities.HourlyEnergyRecord, names nameIndex) []DeviceReading {
	out := make([]DeviceReading, 0, len(recs))
	for _, r := range recs {
		out = append(out, DeviceReading{
			DeviceID:   r.DeviceID,
			DeviceName: names.device(r.DeviceID),
			EnergyWh:   r.EnergyWh,
			MinutesOn:  r.MinutesOn,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}
