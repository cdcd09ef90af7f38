package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"log/slog"
)

func TestDefaultLogDirPathSuffix(t *testing.T) {
	path, err := DefaultLogDirPath()
	if err != nil {
		t.Fatalf("DefaultLogDirPath() error = %v", err)
	}
	if want := filepath.Join("printwatch", "logs"); !strings.HasSuffix(path, want) {
		t.Fatalf("DefaultLogDirPath() = %q, want suffix %q", path, want)
	}
}

func TestFileSinkWritesJSONLAndRotates(t *testing.T) {
	tmp := t.TempDir()
	sink := &fileSink{
		dir:        tmp,
		sessionTag: "20260221-120000",
		maxBytes:   180,
	}
	if err := sink.rotateLocked(); err != nil {
		t.Fatalf("rotateLocked() error = %v", err)
	}

	event := Event{
		Time:    time.Unix(1700000000, 123456789),
		Level:   slog.LevelDebug,
		Message: "settle check passed",
		Fields: map[string]any{
			"attempts": 3,
			"path":     "/in/a/doc.pdf",
			"waited":   750 * time.Millisecond,
		},
	}
	for i := 0; i < 6; i++ {
		if err := sink.WriteEvent(event); err != nil {
			t.Fatalf("WriteEvent() error = %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sink.WriteEvent(event); err == nil {
		t.Fatalf("WriteEvent() after Close expected error")
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected rotation to create multiple files, got %d", len(entries))
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "printwatch-20260221-120000-") || !strings.HasSuffix(entry.Name(), ".jsonl") {
			t.Fatalf("unexpected log filename %q", entry.Name())
		}
		data, err := os.ReadFile(filepath.Join(tmp, entry.Name()))
		if err != nil {
			t.Fatalf("ReadFile(%q) error = %v", entry.Name(), err)
		}
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			var decoded jsonLogLine
			if err := json.Unmarshal([]byte(line), &decoded); err != nil {
				t.Fatalf("invalid json line %q: %v", line, err)
			}
			if decoded.Fields["waited"] != "750ms" {
				t.Fatalf("waited field = %#v, want duration string", decoded.Fields["waited"])
			}
		}
	}
}

func TestLoggerWithSharesSinkAndSubscribers(t *testing.T) {
	tmp := t.TempDir()
	logger := New(false)
	logger.SetTerminalOutputEnabled(false)
	if err := logger.enableFileSink(tmp, 1024); err != nil {
		t.Fatalf("enableFileSink() error = %v", err)
	}

	var got []Event
	unsubscribe := logger.Subscribe(func(event Event) {
		got = append(got, event)
	})

	child := logger.With(Field("record_id", "abc"))
	child.Info("relocated", Field("dest", "/archive/doc.pdf"))
	child.Debug("hidden from subscribers")
	unsubscribe()
	child.Info("after unsubscribe")

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	logger.Info("after close")

	if len(got) != 1 {
		t.Fatalf("subscriber events = %d, want 1", len(got))
	}
	if got[0].Fields["record_id"] != "abc" || got[0].Fields["dest"] != "/archive/doc.pdf" {
		t.Fatalf("child fields = %#v", got[0].Fields)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadDir() = %v, %v", entries, err)
	}
	data, err := os.ReadFile(filepath.Join(tmp, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "hidden from subscribers") {
		t.Fatalf("expected debug event persisted to file")
	}
	if strings.Contains(text, "after close") {
		t.Fatalf("did not expect post-close event in log content")
	}
}
