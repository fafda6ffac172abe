package config

// TickConfig configures internal/control's fixed-rate simulation loop.
type TickConfig struct {
	// Interval is a time.ParseDuration string, e.g. "50ms".
	Interval string `yaml:"interval"`
	// ShutdownTimeout bounds the final drain-and-goodbye sequence.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}
