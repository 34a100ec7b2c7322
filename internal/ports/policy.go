package ports

import "time"

// Policy sizes the buffers between the collector and the tick loop.
type Policy struct {
	TickInterval time.Duration `yaml:"-"`
	MaxBacklog   int           `yaml:"max_backlog"`
	CollectorBuf int           `yaml:"collector_buf"`
}
