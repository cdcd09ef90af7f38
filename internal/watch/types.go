package watch

import (
	"errors"
	"time"
)

var (
	ErrRootUnavailable = errors.New("monitored root unavailable")
	ErrNotRegularFile  = errors.New("not a regular file")
	ErrNotSettled      = errors.New("file did not settle")
	ErrAlreadyStarted  = errors.New("watcher already started")
)

// FileEvent is one "entry created" notification under a monitored root.
type FileEvent struct {
	Path       string
	ObservedAt time.Time
}

type Options struct {
	// Buffer is the capacity of the event channel returned by Start. When it
	// is full the notifier pump blocks instead of dropping events.
	Buffer int
	// Exclude lists directories that are neither watched nor reported.
	Exclude []string
}

type SettleOptions struct {
	// Interval separates the two stats that must agree on size and mtime.
	Interval time.Duration
	// Timeout bounds the whole check including retries.
	Timeout time.Duration
}

const (
	defaultBuffer         = 64
	defaultSettleInterval = 250 * time.Millisecond
	defaultSettleTimeout  = 30 * time.Second
)

func (o SettleOptions) withDefaults() SettleOptions {
	if o.Interval <= 0 {
		o.Interval = defaultSettleInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultSettleTimeout
	}
	return o
}
