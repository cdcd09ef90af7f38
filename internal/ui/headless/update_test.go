package headless

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"printwatch/internal/actionlog"
	"printwatch/internal/config"
	"printwatch/internal/logging"
	"printwatch/internal/runstatus"
)

func TestAppendLinesWithLimit(t *testing.T) {
	got := appendLinesWithLimit("a\nb", "c\r\nd\n", 3)
	if got != "b\nc\nd" {
		t.Fatalf("appendLinesWithLimit() = %q, want %q", got, "b\nc\nd")
	}
	if got := appendLinesWithLimit("", "x", 5); got != "x" {
		t.Fatalf("appendLinesWithLimit(empty) = %q, want %q", got, "x")
	}
	if got := appendLinesWithLimit("a", "b", 0); got != "" {
		t.Fatalf("appendLinesWithLimit(limit 0) = %q, want empty", got)
	}
}

func newTestModel(t *testing.T, opts config.Options) *headlessModel {
	t.Helper()
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	m := newHeadlessModel(t.Context(), "test", opts, config.Settings{}, logger)
	t.Cleanup(m.cleanup)
	return m
}

func TestModelPreviewsInlineRulesAndTodaysRecords(t *testing.T) {
	root := t.TempDir()
	records := t.TempDir()
	line := "[2026-02-14 09:00:00] Printed and moved file: /in/a.pdf"
	path := filepath.Join(records, actionlog.FileName(time.Now()))
	if err := writeFile(path, line+"\n"); err != nil {
		t.Fatalf("write records: %v", err)
	}

	m := newTestModel(t, config.Options{
		Rules:     []string{root + "|.pdf|"},
		Archive:   filepath.Join(t.TempDir(), "done"),
		RecordDir: records,
	})

	if len(m.activeRules) != 1 || m.activeRules[0].Root != root {
		t.Fatalf("activeRules = %#v", m.activeRules)
	}
	if !strings.Contains(m.ui.RecordText, "Printed and moved file: /in/a.pdf") {
		t.Fatalf("RecordText = %q", m.ui.RecordText)
	}
}

func TestApplyRecordCountsOutcomes(t *testing.T) {
	m := newTestModel(t, config.Options{RecordDir: t.TempDir()})
	ts := time.Date(2026, 2, 14, 10, 0, 0, 0, time.Local)
	m.applyRecord(actionlog.Entry{Time: ts, SourcePath: "/in/a.pdf"})
	m.applyRecord(actionlog.Entry{Time: ts, SourcePath: "/in/b.pdf", PrintErr: errors.New("offline")})
	m.applyRecord(actionlog.Entry{Time: ts, SourcePath: "/in/c.pdf", PrintErr: errors.New("offline"), MoveErr: errors.New("denied")})

	if m.printed != 1 || m.partial != 1 || m.failed != 1 {
		t.Fatalf("counts printed=%d partial=%d failed=%d, want 1/1/1", m.printed, m.partial, m.failed)
	}
	if got := len(splitLines(m.ui.RecordText)); got != 3 {
		t.Fatalf("record lines = %d, want 3", got)
	}
}

func TestApplyRuntimeStatus(t *testing.T) {
	m := newTestModel(t, config.Options{RecordDir: t.TempDir()})
	m.starting = true
	m.applyRuntimeStatus(runstatus.Watching)
	if !m.running || m.starting || m.kind != statusWatching {
		t.Fatalf("after Watching running=%v starting=%v kind=%d", m.running, m.starting, m.kind)
	}
	m.applyRuntimeStatus(runstatus.Error)
	if m.kind != statusError || m.status != runstatus.Error {
		t.Fatalf("after Error kind=%d status=%q", m.kind, m.status)
	}

	m.applyRunDone(runDoneMsg{})
	if m.running || m.status != runstatus.Stopped {
		t.Fatalf("after run done running=%v status=%q", m.running, m.status)
	}
}

func TestStartWatchingReportsResolveErrors(t *testing.T) {
	m := newTestModel(t, config.Options{RecordDir: t.TempDir()})
	m.ui.Inputs[0].SetValue(filepath.Join(t.TempDir(), "rules.ini"))
	if cmd := m.startWatchingCmd(true); cmd != nil {
		t.Fatalf("startWatchingCmd() returned a command for an unsupported rules file")
	}
	if !strings.HasPrefix(m.ui.ErrorModalText, "Couldn't start watching automatically:") {
		t.Fatalf("ErrorModalText = %q", m.ui.ErrorModalText)
	}
	if m.starting {
		t.Fatalf("model marked starting after a resolve error")
	}
}

func writeFile(path string, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
