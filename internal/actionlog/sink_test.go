package actionlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"printwatch/internal/logging"
)

func quietLogger() *logging.Logger {
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	return logger
}

func TestEntryLines(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 7, 2, 0, time.Local)
	printErr := errors.New("no such printer")
	moveErr := errors.New("permission denied")

	cases := []struct {
		name   string
		entry  Entry
		want   string
		status Status
	}{
		{
			name:   "success",
			entry:  Entry{Time: at, SourcePath: "/in/a/x.pdf"},
			want:   "[2024-03-05 09:07:02] Printed and moved file: /in/a/x.pdf\n",
			status: StatusPrinted,
		},
		{
			name:   "print failed",
			entry:  Entry{Time: at, SourcePath: "/in/a/x.pdf", PrintErr: printErr},
			want:   "[2024-03-05 09:07:02] Moved file without printing: /in/a/x.pdf (print error: no such printer)\n",
			status: StatusPartial,
		},
		{
			name:   "move failed",
			entry:  Entry{Time: at, SourcePath: "/in/a/x.pdf", MoveErr: moveErr},
			want:   "[2024-03-05 09:07:02] Printed but failed to move file: /in/a/x.pdf (move error: permission denied)\n",
			status: StatusPartial,
		},
		{
			name:   "both failed",
			entry:  Entry{Time: at, SourcePath: "/in/a/x.pdf", PrintErr: printErr, MoveErr: moveErr},
			want:   "[2024-03-05 09:07:02] Failed to print and move file: /in/a/x.pdf (print error: no such printer; move error: permission denied)\n",
			status: StatusFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.entry.Line(); got != tc.want {
				t.Fatalf("Line() = %q, want %q", got, tc.want)
			}
			if got := tc.entry.Status(); got != tc.status {
				t.Fatalf("Status() = %d, want %d", got, tc.status)
			}
			if got := LineStatus(strings.TrimSuffix(tc.want, "\n")); got != tc.status {
				t.Fatalf("LineStatus(%q) = %d, want %d", tc.want, got, tc.status)
			}
		})
	}
}

func TestAppendCreatesThenAppendsDayFile(t *testing.T) {
	dir := t.TempDir()
	sink := New(dir, quietLogger())
	if err := sink.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sink.Close()

	day := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)
	path := filepath.Join(dir, "2024-03-05.txt")
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("day file exists before first append: %v", err)
	}

	for i, name := range []string{"/in/a/1.pdf", "/in/a/2.pdf", "/in/a/3.pdf"} {
		if err := sink.Append(Entry{Time: day.Add(time.Duration(i) * time.Second), SourcePath: name}); err != nil {
			t.Fatalf("Append(%s) error = %v", name, err)
		}
	}

	lines, err := ReadDay(dir, day)
	if err != nil {
		t.Fatalf("ReadDay() error = %v", err)
	}
	want := []string{
		"[2024-03-05 10:00:00] Printed and moved file: /in/a/1.pdf",
		"[2024-03-05 10:00:01] Printed and moved file: /in/a/2.pdf",
		"[2024-03-05 10:00:02] Printed and moved file: /in/a/3.pdf",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestAppendKeepsExistingContent(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)
	existing := "[2024-03-05 08:00:00] Printed and moved file: /earlier.pdf\n"
	if err := os.WriteFile(filepath.Join(dir, FileName(day)), []byte(existing), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sink := New(dir, quietLogger())
	if err := sink.Append(Entry{Time: day, SourcePath: "/later.pdf"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	_ = sink.Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName(day)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), existing) {
		t.Fatalf("existing content lost: %q", data)
	}
	if !strings.HasSuffix(string(data), "Printed and moved file: /later.pdf\n") {
		t.Fatalf("new line missing: %q", data)
	}
}

func TestAppendRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	sink := New(dir, quietLogger())
	defer sink.Close()

	first := time.Date(2024, 3, 5, 23, 59, 59, 0, time.Local)
	second := time.Date(2024, 3, 6, 0, 0, 1, 0, time.Local)
	if err := sink.Append(Entry{Time: first, SourcePath: "/a.pdf"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := sink.Append(Entry{Time: second, SourcePath: "/b.pdf"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	for _, tc := range []struct {
		day  time.Time
		want string
	}{{first, "/a.pdf"}, {second, "/b.pdf"}} {
		lines, err := ReadDay(dir, tc.day)
		if err != nil {
			t.Fatalf("ReadDay() error = %v", err)
		}
		if len(lines) != 1 || !strings.HasSuffix(lines[0], tc.want) {
			t.Fatalf("ReadDay(%s) = %q, want one line for %s", FileName(tc.day), lines, tc.want)
		}
	}
}

func TestSubscribeReceivesInOrder(t *testing.T) {
	sink := New(t.TempDir(), quietLogger())
	defer sink.Close()

	ch, cancel := sink.Subscribe(8)
	defer cancel()

	for _, name := range []string{"/1.pdf", "/2.pdf", "/3.pdf"} {
		if err := sink.Append(Entry{SourcePath: name}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	for _, want := range []string{"/1.pdf", "/2.pdf", "/3.pdf"} {
		select {
		case got := <-ch:
			if got.SourcePath != want {
				t.Fatalf("got %q, want %q", got.SourcePath, want)
			}
			if got.Time.IsZero() {
				t.Fatalf("published entry has zero time")
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestConcurrentAppendsStayWholeAndOrdered(t *testing.T) {
	const writers, perWriter = 8, 50
	dir := t.TempDir()
	sink := New(dir, quietLogger())
	defer sink.Close()

	ch, cancel := sink.Subscribe(writers * perWriter)
	day := time.Now()

	var wg sync.WaitGroup
	for w := range writers {
		wg.Go(func() {
			for i := range perWriter {
				path := fmt.Sprintf("/in/w%d/%03d.pdf", w, i)
				if err := sink.Append(Entry{Time: day, SourcePath: path}); err != nil {
					t.Errorf("Append(%s) error = %v", path, err)
				}
			}
		})
	}
	wg.Wait()
	cancel()

	var published []string
	for entry := range ch {
		published = append(published, entry.Line())
	}

	lines, err := ReadDay(dir, day)
	if err != nil {
		t.Fatalf("ReadDay() error = %v", err)
	}
	if len(lines) != writers*perWriter {
		t.Fatalf("ReadDay() returned %d lines, want %d", len(lines), writers*perWriter)
	}
	if len(published) != len(lines) {
		t.Fatalf("subscriber saw %d entries, want %d", len(published), len(lines))
	}

	prefix := "[" + day.Format("2006-01-02 15:04:05") + "] Printed and moved file: "
	next := make(map[int]int)
	for i, line := range lines {
		if got := strings.TrimRight(published[i], "\n"); got != line {
			t.Fatalf("line %d: subscriber saw %q, file has %q", i, got, line)
		}
		if LineStatus(line) != StatusPrinted || !strings.HasPrefix(line, prefix) {
			t.Fatalf("line %d is malformed: %q", i, line)
		}
		var w, seq int
		if _, err := fmt.Sscanf(strings.TrimPrefix(line, prefix), "/in/w%d/%d.pdf", &w, &seq); err != nil {
			t.Fatalf("line %d: parse %q: %v", i, line, err)
		}
		if seq != next[w] {
			t.Fatalf("writer %d: got sequence %d, want %d", w, seq, next[w])
		}
		next[w]++
	}
	for w := range writers {
		if next[w] != perWriter {
			t.Fatalf("writer %d: %d lines, want %d", w, next[w], perWriter)
		}
	}
}

func TestSlowSubscriberNeverBlocksAppend(t *testing.T) {
	sink := New(t.TempDir(), quietLogger())
	defer sink.Close()

	ch, cancel := sink.Subscribe(2)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 50 {
			_ = sink.Append(Entry{SourcePath: filepath.Join("/in", string(rune('a'+i%26))+".pdf"), RuleIndex: i})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Append blocked on a full subscriber")
	}

	// Only the newest entries survive.
	first := <-ch
	second := <-ch
	if first.RuleIndex != 48 || second.RuleIndex != 49 {
		t.Fatalf("got entries %d,%d, want 48,49", first.RuleIndex, second.RuleIndex)
	}
}

func TestFailedAppendIsPublishedWithErr(t *testing.T) {
	dir := t.TempDir()
	sink := New(dir, quietLogger())
	defer sink.Close()

	day := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)
	// A directory in place of the day file makes the open fail.
	if err := os.Mkdir(filepath.Join(dir, FileName(day)), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	ch, cancel := sink.Subscribe(1)
	defer cancel()

	if err := sink.Append(Entry{Time: day, SourcePath: "/x.pdf"}); err == nil {
		t.Fatalf("Append() succeeded, want error")
	}
	got := <-ch
	if got.Err == nil {
		t.Fatalf("published entry has nil Err")
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	sink := New(t.TempDir(), quietLogger())
	ch, cancel := sink.Subscribe(1)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("subscriber channel still open after Close")
	}
	if err := sink.Append(Entry{SourcePath: "/x.pdf"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Append() after Close error = %v, want ErrClosed", err)
	}
}

func TestOwns(t *testing.T) {
	dir := t.TempDir()
	sink := New(dir, quietLogger())
	cases := map[string]bool{
		filepath.Join(dir, "2024-03-05.txt"):         true,
		filepath.Join(dir, "notes.txt"):              false,
		filepath.Join(dir, "2024-13-05.txt"):         false,
		filepath.Join(dir, "sub", "2024-03-05.txt"):  false,
		filepath.Join(t.TempDir(), "2024-03-05.txt"): false,
	}
	for path, want := range cases {
		if got := sink.Owns(path); got != want {
			t.Fatalf("Owns(%q) = %v, want %v", path, got, want)
		}
	}
}
