// Package runctx holds the context-aware channel helpers the watcher pump and
// the session worker use so that every blocking send or receive also observes
// cancellation.
package runctx

import (
	"context"

	"printwatch/internal/logging"
)

func RecvOrDone[T any](ctx context.Context, name string, logger *logging.Logger, in <-chan T) (T, bool) {
	select {
	case <-ctx.Done():
		logger.Debug("stopping "+name+": context canceled", logging.Field("error", ctx.Err()))
		var zero T
		return zero, false
	case v, ok := <-in:
		if !ok {
			logger.Debug("stopping " + name + ": input channel closed")
		}
		return v, ok
	}
}

// SendOrDone blocks until value is accepted by out or ctx is done. A full
// buffered channel therefore applies backpressure to the sender.
func SendOrDone[T any](ctx context.Context, name string, logger *logging.Logger, out chan<- T, value T) bool {
	select {
	case <-ctx.Done():
		logger.Debug("stopping "+name+": context canceled before send", logging.Field("error", ctx.Err()))
		return false
	case out <- value:
		return true
	}
}

// Drain discards values until in is closed and returns how many it read.
func Drain[T any](in <-chan T) int {
	n := 0
	for range in {
		n++
	}
	return n
}

// OfferLatest sends value to a buffered channel, evicting the oldest queued
// value when the buffer is full. It never blocks.
func OfferLatest[T any](out chan T, value T) (dropped bool) {
	for {
		select {
		case out <- value:
			return dropped
		default:
		}
		select {
		case <-out:
			dropped = true
		default:
		}
	}
}
