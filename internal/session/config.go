package session

import (
	"time"

	"printwatch/internal/dispatch"
	"printwatch/internal/rules"
	"printwatch/internal/watch"
)

const DefaultQueueSize = 64

// Config is everything one watch session needs. It is read once by Start and
// not consulted again.
type Config struct {
	Rules            []rules.Rule
	RelocationTarget string
	// RecordDir holds the daily record files. Empty means the working
	// directory.
	RecordDir       string
	QueueSize       int
	Settle          watch.SettleOptions
	DispatchTimeout time.Duration
	// RelocateDelay holds a printed file in place before it is moved.
	RelocateDelay time.Duration
	Dispatcher    dispatch.Dispatcher
	Clock         func() time.Time
}

func (c Config) queueSize() int {
	if c.QueueSize <= 0 {
		return DefaultQueueSize
	}
	return c.QueueSize
}
