package galago

import "log/slog"

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	littleH          float64
}

// Option configures catalog open behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to keep logging disabled.
//
// Example with JSON logging:
//
//	logger := galago.NewJSONLogger(slog.LevelInfo)
//	cat, _ := galago.Open(ctx, store, galago.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &galago.BasicMetricsCollector{}
//	cat, _ := galago.Open(ctx, store, galago.WithMetricsCollector(metrics))
//	// ... use cat ...
//	stats := metrics.GetStats()
//	fmt.Printf("Reads: %d, Avg latency: %dns\n", stats.ReadCount, stats.ReadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

// WithLittleH sets a default Hubble little-h value applied to every record
// fetch, dividing masses, lengths and merger times by h. Zero (the
// default) leaves records in the simulation's native h-scaled units.
// Per-call ReadOptions.LittleH overrides this value.
func WithLittleH(h float64) Option {
	return func(o *options) {
		o.littleH = h
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
