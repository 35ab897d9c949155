package usecases

const (
	EventDeviceState  = "device_state"
	EventOccupancy    = "occupancy"
	EventEnergySaving = "energy_saving"
	EventHourlyRun    = "hourly_run"
)

// EventPublisher receives notifications about state the engine changed.
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
