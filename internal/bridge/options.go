package bridge

import (
	"time"

	"github.com/msp-agents/msp/internal/logging"
)

// Option configures a Bridge or Registry.
type Option func(*config)

type config struct {
	logger *logging.Logger
	now    func() time.Time
}

func defaultConfig() *config {
	return &config{
		logger: logging.NopLogger(),
		now:    time.Now,
	}
}

// WithLogger sets the logger used for skipped-message warnings.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock allows tests to control message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}
