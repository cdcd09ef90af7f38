package pipeline

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
)

func quietLogger() *logging.Logger {
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	return logger
}

type call struct {
	path   string
	target string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []call
	err   error
	hook  func(ctx context.Context) error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, path, target string) error {
	d.mu.Lock()
	d.calls = append(d.calls, call{path: path, target: target})
	d.mu.Unlock()
	if d.hook != nil {
		return d.hook(ctx)
	}
	return d.err
}

type failingSink struct{ err error }

func (s failingSink) Append(actionlog.Entry) error { return s.err }

var fixedTime = time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)

type fixture struct {
	in      string
	archive string
	records string
	sink    *actionlog.Sink
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		in:      filepath.Join(base, "in", "a"),
		archive: filepath.Join(base, "archive"),
		records: filepath.Join(base, "records"),
	}
	for _, dir := range []string{f.in, f.archive, f.records} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	f.sink = actionlog.New(f.records, quietLogger())
	t.Cleanup(func() { _ = f.sink.Close() })
	return f
}

func (f fixture) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.in, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func (f fixture) lines(t *testing.T) []string {
	t.Helper()
	lines, err := actionlog.ReadDay(f.records, fixedTime)
	if err != nil {
		t.Fatalf("ReadDay() error = %v", err)
	}
	return lines
}

func (f fixture) pipeline(d *fakeDispatcher) *Pipeline {
	return New(Options{
		Dispatcher:       d,
		RelocationTarget: f.archive,
		Sink:             f.sink,
		Logger:           quietLogger(),
		Clock:            func() time.Time { return fixedTime },
	})
}

func matched(path string) MatchedEvent {
	return MatchedEvent{
		Path:      path,
		Rule:      rules.Rule{Root: filepath.Dir(path), Patterns: []string{".pdf"}, Target: "PDF"},
		RuleIndex: 0,
	}
}

func TestExecuteSuccess(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")
	d := &fakeDispatcher{}

	rec := f.pipeline(d).Execute(context.Background(), matched(src))

	if got := rec.Outcome(); got != OutcomeSuccess {
		t.Fatalf("Outcome() = %q, want %q (err=%v)", got, OutcomeSuccess, rec.Err())
	}
	if len(d.calls) != 1 || d.calls[0].path != src || d.calls[0].target != "PDF" {
		t.Fatalf("dispatch calls = %+v, want one call for %s on PDF", d.calls, src)
	}
	dest := filepath.Join(f.archive, "x.pdf")
	if rec.DestPath != dest {
		t.Fatalf("DestPath = %q, want %q", rec.DestPath, dest)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source still present: %v", err)
	}
	if data, err := os.ReadFile(dest); err != nil || string(data) != "hello" {
		t.Fatalf("archived content = %q, %v", data, err)
	}
	want := "[2024-03-05 14:30:00] Printed and moved file: " + src
	if lines := f.lines(t); len(lines) != 1 || lines[0] != want {
		t.Fatalf("record lines = %q, want [%q]", lines, want)
	}
	if rec.ID == "" {
		t.Fatalf("record has empty ID")
	}
}

func TestExecuteDispatchFailureStillMoves(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")
	d := &fakeDispatcher{err: errors.New("printer offline")}

	rec := f.pipeline(d).Execute(context.Background(), matched(src))

	if rec.Dispatch.Status != StatusFailed || !errors.Is(rec.Dispatch.Err, ErrDispatch) {
		t.Fatalf("Dispatch = %+v, want failed ErrDispatch", rec.Dispatch)
	}
	if rec.Relocate.Status != StatusOK {
		t.Fatalf("Relocate = %+v, want ok", rec.Relocate)
	}
	if _, err := os.Stat(filepath.Join(f.archive, "x.pdf")); err != nil {
		t.Fatalf("file not archived: %v", err)
	}
	if got := rec.Outcome(); got != OutcomePartial {
		t.Fatalf("Outcome() = %q, want %q", got, OutcomePartial)
	}
	want := "[2024-03-05 14:30:00] Moved file without printing: " + src + " (print error: printer offline)"
	if lines := f.lines(t); len(lines) != 1 || lines[0] != want {
		t.Fatalf("record lines = %q, want [%q]", lines, want)
	}
}

func TestExecuteRelocationFailureLeavesFile(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")
	d := &fakeDispatcher{}

	p := New(Options{
		Dispatcher:       d,
		RelocationTarget: filepath.Join(f.archive, "missing", "deeper"),
		Sink:             f.sink,
		Logger:           quietLogger(),
		Clock:            func() time.Time { return fixedTime },
	})
	rec := p.Execute(context.Background(), matched(src))

	if rec.Dispatch.Status != StatusOK {
		t.Fatalf("Dispatch = %+v, want ok", rec.Dispatch)
	}
	if rec.Relocate.Status != StatusFailed || !errors.Is(rec.Relocate.Err, ErrRelocate) {
		t.Fatalf("Relocate = %+v, want failed ErrRelocate", rec.Relocate)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should stay in place: %v", err)
	}
	lines := f.lines(t)
	if len(lines) != 1 || !strings.Contains(lines[0], "Printed but failed to move file: "+src+" (move error: ") {
		t.Fatalf("record lines = %q, want move failure line", lines)
	}
}

func TestExecuteOverwritesArchivedName(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(filepath.Join(f.archive, "x.pdf"), []byte("old"), 0o600); err != nil {
		t.Fatalf("seed archive: %v", err)
	}
	src := f.file(t, "x.pdf", "new")

	rec := f.pipeline(&fakeDispatcher{}).Execute(context.Background(), matched(src))
	if rec.Relocate.Status != StatusOK {
		t.Fatalf("Relocate = %+v, want ok", rec.Relocate)
	}
	data, err := os.ReadFile(filepath.Join(f.archive, "x.pdf"))
	if err != nil || string(data) != "new" {
		t.Fatalf("archived content = %q, %v; want new", data, err)
	}
}

func TestExecuteCanceledBeforeStart(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")
	d := &fakeDispatcher{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := f.pipeline(d).Execute(ctx, matched(src))

	if len(d.calls) != 0 {
		t.Fatalf("dispatcher called %d times, want 0", len(d.calls))
	}
	for _, s := range []StepOutcome{rec.Dispatch, rec.Relocate, rec.Record} {
		if s.Status != StatusSkipped || !errors.Is(s.Err, ErrSkipped) {
			t.Fatalf("%s = %+v, want skipped", s.Step, s)
		}
	}
	if got := rec.Outcome(); got != OutcomeAbandoned {
		t.Fatalf("Outcome() = %q, want %q", got, OutcomeAbandoned)
	}
	if lines := f.lines(t); len(lines) != 0 {
		t.Fatalf("record lines = %q, want none", lines)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should stay in place: %v", err)
	}
}

func TestExecuteCanceledAfterDispatchStillRecords(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := &fakeDispatcher{hook: func(context.Context) error {
		cancel()
		return nil
	}}
	rec := f.pipeline(d).Execute(ctx, matched(src))

	if rec.Dispatch.Status != StatusOK || rec.Relocate.Status != StatusSkipped {
		t.Fatalf("Dispatch=%s Relocate=%s, want ok/skipped", rec.Dispatch.Status, rec.Relocate.Status)
	}
	if rec.Record.Status != StatusOK {
		t.Fatalf("Record = %+v, want ok", rec.Record)
	}
	lines := f.lines(t)
	if len(lines) != 1 || !strings.Contains(lines[0], "Printed but failed to move file: "+src) {
		t.Fatalf("record lines = %q, want move failure line", lines)
	}
}

func TestExecuteDispatchTimeout(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")
	d := &fakeDispatcher{hook: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	p := New(Options{
		Dispatcher:       d,
		RelocationTarget: f.archive,
		Sink:             f.sink,
		Logger:           quietLogger(),
		DispatchTimeout:  20 * time.Millisecond,
		Clock:            func() time.Time { return fixedTime },
	})

	rec := p.Execute(context.Background(), matched(src))
	if !errors.Is(rec.Dispatch.Err, context.DeadlineExceeded) {
		t.Fatalf("Dispatch.Err = %v, want DeadlineExceeded", rec.Dispatch.Err)
	}
	if rec.Relocate.Status != StatusOK {
		t.Fatalf("Relocate = %+v, want ok after dispatch timeout", rec.Relocate)
	}
}

func TestExecuteHoldsFileAfterDispatch(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")
	p := New(Options{
		Dispatcher:       &fakeDispatcher{},
		RelocationTarget: f.archive,
		Sink:             f.sink,
		Logger:           quietLogger(),
		RelocateDelay:    50 * time.Millisecond,
		Clock:            func() time.Time { return fixedTime },
	})

	done := make(chan ActionRecord, 1)
	go func() { done <- p.Execute(context.Background(), matched(src)) }()

	time.Sleep(10 * time.Millisecond)
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("file moved before the hold elapsed: %v", err)
	}
	rec := <-done
	if rec.Relocate.Status != StatusOK {
		t.Fatalf("Relocate = %+v, want ok after hold", rec.Relocate)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present after hold: %v", err)
	}
}

func TestExecuteHoldEndsOnCancel(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := New(Options{
		Dispatcher: &fakeDispatcher{hook: func(context.Context) error {
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
			return nil
		}},
		RelocationTarget: f.archive,
		Sink:             f.sink,
		Logger:           quietLogger(),
		RelocateDelay:    time.Hour,
		Clock:            func() time.Time { return fixedTime },
	})

	rec := p.Execute(ctx, matched(src))
	if rec.Dispatch.Status != StatusOK || rec.Relocate.Status != StatusSkipped {
		t.Fatalf("Dispatch=%s Relocate=%s, want ok/skipped", rec.Dispatch.Status, rec.Relocate.Status)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("file should stay in place: %v", err)
	}
}

func TestExecuteRecordFailure(t *testing.T) {
	f := newFixture(t)
	src := f.file(t, "x.pdf", "hello")
	p := New(Options{
		Dispatcher:       &fakeDispatcher{},
		RelocationTarget: f.archive,
		Sink:             failingSink{err: errors.New("disk full")},
		Logger:           quietLogger(),
	})

	rec := p.Execute(context.Background(), matched(src))
	if rec.Record.Status != StatusFailed {
		t.Fatalf("Record = %+v, want failed", rec.Record)
	}
	if err := rec.Err(); !errors.Is(err, ErrRecord) {
		t.Fatalf("Err() = %v, want ErrRecord", err)
	}
	if got := rec.Outcome(); got != OutcomePartial {
		t.Fatalf("Outcome() = %q, want %q", got, OutcomePartial)
	}
}

func TestStepErrorMatchesSentinelAndCause(t *testing.T) {
	cause := os.ErrPermission
	err := error(&StepError{Step: StepRelocate, Path: "/in/x.pdf", Err: cause})
	if !errors.Is(err, ErrRelocate) || !errors.Is(err, os.ErrPermission) {
		t.Fatalf("StepError does not match sentinel and cause: %v", err)
	}
	if errors.Is(err, ErrDispatch) {
		t.Fatalf("StepError for relocate matched ErrDispatch")
	}
	if got, want := err.Error(), "relocate /in/x.pdf: permission denied"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
