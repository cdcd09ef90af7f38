// Package actionlog keeps the durable, day-partitioned record of processed
// files and fans each appended entry out to in-process observers.
package actionlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"printwatch/internal/logging"
	"printwatch/internal/runctx"
)

var ErrClosed = errors.New("record sink closed")

const defaultSubscriberBuffer = 32

// Sink appends record lines to <dir>/YYYY-MM-DD.txt. It is the single writer
// of those files for the lifetime of a session.
type Sink struct {
	dir    string
	logger *logging.Logger

	mu     sync.Mutex
	file   *os.File
	day    string
	closed bool

	nextID      int
	subscribers map[int]chan Entry
}

func New(dir string, logger *logging.Logger) *Sink {
	if logger == nil {
		panic("actionlog.New: logger must not be nil")
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Sink{
		dir:         dir,
		logger:      logger,
		subscribers: map[int]chan Entry{},
	}
}

func (s *Sink) Dir() string {
	return s.dir
}

// Open makes sure the record directory exists. The day file itself is only
// created by the first append of that day.
func (s *Sink) Open() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat record directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("record directory %s is not a directory", s.dir)
	}
	return nil
}

// Owns reports whether path is one of the sink's own day files.
func (s *Sink) Owns(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == s.dir && isDayFileName(filepath.Base(path))
}

// Append writes one line for entry and then publishes it. A failed write is
// still published, with Err set, so observers see partial effects.
func (s *Sink) Append(entry Entry) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	err := s.writeLocked(entry)
	if err != nil {
		entry.Err = err
		s.logger.Error("failed to append record line", logging.Field("path", entry.SourcePath), logging.Field("error", err))
	}
	s.publishLocked(entry)
	return err
}

func (s *Sink) writeLocked(entry Entry) error {
	day := entry.Time.Format(dayLayout)
	if s.file == nil || s.day != day {
		if s.file != nil {
			_ = s.file.Close()
			s.file = nil
		}
		path := filepath.Join(s.dir, FileName(entry.Time))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open record file: %w", err)
		}
		s.file = f
		s.day = day
		s.logger.Debug("record file opened", logging.Field("path", path))
	}
	if _, err := s.file.WriteString(entry.Line()); err != nil {
		return fmt.Errorf("write record line: %w", err)
	}
	return nil
}

// Subscribe returns a channel receiving every entry appended from now on.
// When the buffer is full the oldest undelivered entry is discarded; Append
// never waits on an observer. The channel is closed by the returned cancel
// func or by Close.
func (s *Sink) Subscribe(buffer int) (<-chan Entry, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan Entry, buffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

func (s *Sink) publishLocked(entry Entry) {
	for id, ch := range s.subscribers {
		if runctx.OfferLatest(ch, entry) {
			s.logger.Debug("record observer lagging, dropped oldest entry", logging.Field("subscriber", id))
		}
	}
}

// Close releases the day file and closes every subscriber channel.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// ReadDay returns the record lines stored for the local day of t, oldest
// first. A day without a file yields no lines and no error.
func ReadDay(dir string, t time.Time) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, FileName(t)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
