package runctx

import (
	"context"
	"testing"
	"time"

	"printwatch/internal/logging"
)

func quietLogger() *logging.Logger {
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	return logger
}

func TestSendOrDone_BlocksUntilCanceled(t *testing.T) {
	out := make(chan int, 1)
	out <- 1

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		done <- SendOrDone(ctx, "test", quietLogger(), out, 2)
	}()

	select {
	case <-done:
		t.Fatalf("SendOrDone returned while channel was full")
	case <-time.After(50 * time.Millisecond):
	}
	cancel()
	if sent := <-done; sent {
		t.Fatalf("SendOrDone() = true after cancel, want false")
	}
}

func TestRecvOrDone_ClosedChannel(t *testing.T) {
	in := make(chan string)
	close(in)
	if _, ok := RecvOrDone(context.Background(), "test", quietLogger(), in); ok {
		t.Fatalf("RecvOrDone() ok = true on closed channel")
	}
}

func TestDrainAndOfferLatest(t *testing.T) {
	ch := make(chan int, 2)
	if OfferLatest(ch, 1) || OfferLatest(ch, 2) {
		t.Fatalf("OfferLatest dropped while buffer had room")
	}
	if !OfferLatest(ch, 3) {
		t.Fatalf("OfferLatest expected to drop oldest")
	}
	if got := <-ch; got != 2 {
		t.Fatalf("oldest remaining = %d, want 2", got)
	}
	close(ch)
	if n := Drain(ch); n != 1 {
		t.Fatalf("Drain() = %d, want 1", n)
	}
}
