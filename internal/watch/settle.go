package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var errStillChanging = errors.New("file still changing")

// Settle waits until path looks fully written: two stats Interval apart agree
// on size and modification time, and the file can be opened for reading.
// A path that vanished reports an error matching os.ErrNotExist; anything
// that is not a regular file reports ErrNotRegularFile. Neither is retried.
func Settle(ctx context.Context, path string, opts SettleOptions) (os.FileInfo, error) {
	opts = opts.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.Interval
	b.MaxInterval = 4 * opts.Interval
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.2

	operation := func() (os.FileInfo, error) {
		return probe(ctx, path, opts.Interval)
	}
	info, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(opts.Timeout),
	)
	if err == nil {
		return info, nil
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNotRegularFile) {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, fmt.Errorf("%w after %s: %s: %v", ErrNotSettled, opts.Timeout, path, err)
}

func probe(ctx context.Context, path string, interval time.Duration) (os.FileInfo, error) {
	first, err := statRegular(path)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, backoff.Permanent(ctx.Err())
	case <-timer.C:
	}

	second, err := statRegular(path)
	if err != nil {
		return nil, err
	}
	if first.Size() != second.Size() || !first.ModTime().Equal(second.ModTime()) {
		return nil, errStillChanging
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("open for reading: %w", err)
	}
	_ = f.Close()
	return second, nil
}

func statRegular(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotRegularFile, path))
	}
	return info, nil
}
