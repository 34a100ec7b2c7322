package ports

import "github.com/NkanyeziNgobese/ares-1/internal/domain"

// Collector streams whole telemetry samples from a data source (MQTT, OPC UA,
// replay tables) into the pipeline. Implementations may run their own
// goroutines but must only ever send complete Sample values.
type Collector interface {
	Start(out chan<- domain.Sample) error
	Stop() error
}
