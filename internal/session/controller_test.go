package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"printwatch/internal/actionlog"
	"printwatch/internal/logging"
	"printwatch/internal/rules"
	"printwatch/internal/runstatus"
	"printwatch/internal/watch"
)

func quietLogger() *logging.Logger {
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	return logger
}

type submission struct {
	path   string
	target string
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []submission
	block chan struct{}
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, path, target string) error {
	d.mu.Lock()
	d.calls = append(d.calls, submission{path: path, target: target})
	block := d.block
	d.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return d.err
}

func (d *recordingDispatcher) snapshot() []submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]submission(nil), d.calls...)
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type env struct {
	base    string
	archive string
	records string
}

func newEnv(t *testing.T, dirs ...string) env {
	t.Helper()
	base := t.TempDir()
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	return env{
		base:    base,
		archive: filepath.Join(base, "processed"),
		records: filepath.Join(base, "records"),
	}
}

func (e env) path(parts ...string) string {
	return filepath.Join(append([]string{e.base}, parts...)...)
}

func (e env) config(d *recordingDispatcher, list ...rules.Rule) Config {
	return Config{
		Rules:            list,
		RelocationTarget: e.archive,
		RecordDir:        e.records,
		Settle:           watch.SettleOptions{Interval: 10 * time.Millisecond, Timeout: 2 * time.Second},
		Dispatcher:       d,
	}
}

func (e env) recordLines(t *testing.T) []string {
	t.Helper()
	lines, err := actionlog.ReadDay(e.records, time.Now())
	if err != nil {
		t.Fatalf("ReadDay() error = %v", err)
	}
	return lines
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("%PDF"), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSessionPrintsMovesAndRecords(t *testing.T) {
	e := newEnv(t, "in/a", "in/b")
	d := &recordingDispatcher{}
	var (
		mu       sync.Mutex
		statuses []string
		entries  []actionlog.Entry
	)
	hooks := StartHooks{
		OnStatus: func(s string) { mu.Lock(); statuses = append(statuses, s); mu.Unlock() },
		OnRecord: func(entry actionlog.Entry) { mu.Lock(); entries = append(entries, entry); mu.Unlock() },
	}

	c := NewController(context.Background())
	err := c.Start(e.config(d,
		rules.Rule{Root: e.path("in", "a"), Patterns: []string{".pdf", ".docx"}, Target: "A"},
		rules.Rule{Root: e.path("in", "b"), Patterns: []string{".pdf"}, Target: "B"},
	), quietLogger(), hooks)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	src := e.path("in", "a", "x.pdf")
	writeFile(t, src)
	waitUntil(t, "record line", func() bool { return len(e.recordLines(t)) == 1 })
	c.Stop()

	calls := d.snapshot()
	if len(calls) != 1 || calls[0].path != src || calls[0].target != "A" {
		t.Fatalf("dispatch calls = %+v, want one call for %s on A", calls, src)
	}
	if _, err := os.Stat(filepath.Join(e.archive, "x.pdf")); err != nil {
		t.Fatalf("file not archived: %v", err)
	}
	line := e.recordLines(t)[0]
	if !strings.HasSuffix(line, "] Printed and moved file: "+src) {
		t.Fatalf("record line = %q", line)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(entries) != 1 || entries[0].SourcePath != src {
		t.Fatalf("OnRecord entries = %+v", entries)
	}
	want := []string{runstatus.Starting, runstatus.Watching, runstatus.Stopped}
	if strings.Join(statuses, ",") != strings.Join(want, ",") {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
}

func TestSessionFirstRuleWins(t *testing.T) {
	e := newEnv(t, "in/a")
	d := &recordingDispatcher{}
	c := NewController(context.Background())
	err := c.Start(e.config(d,
		rules.Rule{Root: e.path("in"), Patterns: []string{".pdf"}, Target: "P1"},
		rules.Rule{Root: e.path("in", "a"), Patterns: []string{".pdf"}, Target: "P2"},
	), quietLogger(), StartHooks{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	writeFile(t, e.path("in", "a", "x.pdf"))
	waitUntil(t, "dispatch", func() bool { return len(d.snapshot()) >= 1 })
	waitUntil(t, "record line", func() bool { return len(e.recordLines(t)) == 1 })

	calls := d.snapshot()
	if len(calls) != 1 || calls[0].target != "P1" {
		t.Fatalf("dispatch calls = %+v, want a single call on P1", calls)
	}
}

func TestSessionIgnoresUnmatchedFiles(t *testing.T) {
	e := newEnv(t, "in/a")
	d := &recordingDispatcher{}
	c := NewController(context.Background())
	err := c.Start(e.config(d,
		rules.Rule{Root: e.path("in", "a"), Patterns: []string{".pdf"}, Target: "A"},
	), quietLogger(), StartHooks{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	skipped := e.path("in", "a", "x.txt")
	writeFile(t, skipped)
	marker := e.path("in", "a", "marker.pdf")
	writeFile(t, marker)
	waitUntil(t, "marker record", func() bool { return len(e.recordLines(t)) == 1 })
	c.Stop()

	if calls := d.snapshot(); len(calls) != 1 || calls[0].path != marker {
		t.Fatalf("dispatch calls = %+v, want only %s", calls, marker)
	}
	if _, err := os.Stat(skipped); err != nil {
		t.Fatalf("unmatched file should stay in place: %v", err)
	}
}

func TestSessionIgnoresArchiveAndRecordsUnderRoot(t *testing.T) {
	e := newEnv(t, "in")
	root := e.path("in")
	d := &recordingDispatcher{}
	cfg := e.config(d, rules.Rule{Root: root, Patterns: []string{".pdf", ".txt"}})
	cfg.RelocationTarget = filepath.Join(root, "done")
	cfg.RecordDir = root

	c := NewController(context.Background())
	if err := c.Start(cfg, quietLogger(), StartHooks{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	writeFile(t, filepath.Join(root, "x.pdf"))
	waitUntil(t, "archived file", func() bool {
		_, err := os.Stat(filepath.Join(root, "done", "x.pdf"))
		return err == nil
	})
	// Leave time for any event on the archived copy or the record file.
	time.Sleep(300 * time.Millisecond)
	c.Stop()

	if calls := d.snapshot(); len(calls) != 1 {
		t.Fatalf("dispatch calls = %+v, want exactly one", calls)
	}
}

func TestSessionRejectsSecondStart(t *testing.T) {
	e := newEnv(t, "in")
	d := &recordingDispatcher{}
	cfg := e.config(d, rules.Rule{Root: e.path("in"), Patterns: []string{".pdf"}})

	c := NewController(context.Background())
	if err := c.Start(cfg, quietLogger(), StartHooks{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Start(cfg, quietLogger(), StartHooks{}); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
	c.Stop()
	if c.IsRunning() {
		t.Fatalf("IsRunning() = true after Stop")
	}

	// The relocation target already exists now; starting again must work.
	if err := c.Start(cfg, quietLogger(), StartHooks{}); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	c.Stop()
}

func TestSessionSetupErrors(t *testing.T) {
	e := newEnv(t, "in")
	d := &recordingDispatcher{}
	blocker := e.path("file")
	writeFile(t, blocker)

	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "no rules", mutate: func(c *Config) { c.Rules = nil }, want: rules.ErrNoRules},
		{name: "missing root", mutate: func(c *Config) { c.Rules[0].Root = e.path("missing") }, want: watch.ErrRootUnavailable},
		{name: "archive is a file", mutate: func(c *Config) { c.RelocationTarget = filepath.Join(blocker, "sub") }},
		{name: "records under a file", mutate: func(c *Config) { c.RecordDir = filepath.Join(blocker, "sub") }},
		{name: "archive is the root", mutate: func(c *Config) { c.RelocationTarget = e.path("in") }, want: ErrArchiveContainsRoot},
		{name: "archive contains the root", mutate: func(c *Config) { c.RelocationTarget = e.base }, want: ErrArchiveContainsRoot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := e.config(d, rules.Rule{Root: e.path("in"), Patterns: []string{".pdf"}})
			tc.mutate(&cfg)
			var statuses []string
			c := NewController(context.Background())
			err := c.Start(cfg, quietLogger(), StartHooks{OnStatus: func(s string) { statuses = append(statuses, s) }})

			var setupErr *SetupError
			if !errors.As(err, &setupErr) || !errors.Is(err, ErrSetup) {
				t.Fatalf("Start() error = %v, want *SetupError", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("Start() error = %v, want %v", err, tc.want)
			}
			if c.IsRunning() {
				t.Fatalf("IsRunning() = true after setup failure")
			}
			if len(statuses) == 0 || statuses[len(statuses)-1] != runstatus.Error {
				t.Fatalf("statuses = %v, want trailing %s", statuses, runstatus.Error)
			}
		})
	}
}

func TestSessionRestartWhileWaiting(t *testing.T) {
	e := newEnv(t, "in")
	d := &recordingDispatcher{}
	cfg := e.config(d, rules.Rule{Root: e.path("in"), Patterns: []string{".pdf"}})
	c := NewController(context.Background())

	for round := range 3 {
		if err := c.Start(cfg, quietLogger(), StartHooks{}); err != nil {
			t.Fatalf("round %d: Start() error = %v", round, err)
		}
		var waiters sync.WaitGroup
		for range 4 {
			waiters.Go(func() { c.Wait(0) })
		}
		c.Stop()
		waiters.Wait()
		if c.IsRunning() {
			t.Fatalf("round %d: IsRunning() = true after Stop", round)
		}
	}

	if err := c.Start(cfg, quietLogger(), StartHooks{}); err != nil {
		t.Fatalf("final Start() error = %v", err)
	}
	src := e.path("in", "again.pdf")
	writeFile(t, src)
	waitUntil(t, "restarted session to dispatch", func() bool { return len(d.snapshot()) == 1 })
	if !c.StopAndWait(5 * time.Second) {
		t.Fatalf("StopAndWait() = false, want true")
	}
	if !c.Wait(time.Millisecond) {
		t.Fatalf("Wait() = false with no session running")
	}
}

func TestWaitWithoutSessionReturns(t *testing.T) {
	c := NewController(context.Background())
	if !c.Wait(time.Millisecond) {
		t.Fatalf("Wait() = false before any Start")
	}
	c.Stop()
	if !c.StopAndWait(time.Millisecond) {
		t.Fatalf("StopAndWait() = false before any Start")
	}
}

func TestStopWaitsForInFlightFile(t *testing.T) {
	e := newEnv(t, "in")
	d := &recordingDispatcher{block: make(chan struct{})}
	c := NewController(context.Background())
	if err := c.Start(e.config(d, rules.Rule{Root: e.path("in"), Patterns: []string{".pdf"}}), quietLogger(), StartHooks{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	src := e.path("in", "x.pdf")
	writeFile(t, src)
	waitUntil(t, "dispatch to begin", func() bool { return len(d.snapshot()) == 1 })

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatalf("Stop returned while a file was still being processed")
	case <-time.After(100 * time.Millisecond):
	}

	close(d.block)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatalf("Stop did not return after the in-flight file finished")
	}
	if lines := e.recordLines(t); len(lines) != 1 || !strings.Contains(lines[0], "Printed and moved file: "+src) {
		t.Fatalf("record lines = %q", lines)
	}
}

func TestStopAndWaitCancelsAfterGrace(t *testing.T) {
	e := newEnv(t, "in")
	d := &recordingDispatcher{block: make(chan struct{})}
	exited := make(chan error, 1)
	c := NewController(context.Background())
	err := c.Start(e.config(d, rules.Rule{Root: e.path("in"), Patterns: []string{".pdf"}}), quietLogger(), StartHooks{
		OnExit: func(err error) { exited <- err },
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	src := e.path("in", "x.pdf")
	writeFile(t, src)
	waitUntil(t, "dispatch to begin", func() bool { return len(d.snapshot()) == 1 })

	if c.StopAndWait(50 * time.Millisecond) {
		t.Fatalf("StopAndWait() = true, want false for a blocked dispatch")
	}
	if c.IsRunning() {
		t.Fatalf("IsRunning() = true after StopAndWait")
	}
	if err := <-exited; err != nil {
		t.Fatalf("OnExit error = %v, want nil", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("file should stay in place after cancellation: %v", err)
	}
	if lines := e.recordLines(t); len(lines) != 1 || !strings.Contains(lines[0], "Failed to print and move file: "+src) {
		t.Fatalf("record lines = %q", lines)
	}
}
