package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type structPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestOrderedFieldKeys_ErrorLastThenBlocks(t *testing.T) {
	fields := map[string]any{
		"path":   "/in/a/doc.pdf",
		"rule":   structPayload{Name: "a", Count: 1},
		"error":  errors.New("boom"),
		"target": "P1",
	}
	keys := orderedFieldKeys(fields)
	want := []string{"path", "target", "error", "rule"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("orderedFieldKeys() = %v, want %v", keys, want)
	}
}

func TestPrettyJSONString_StructField(t *testing.T) {
	pretty, ok := prettyJSONString(structPayload{Name: "abc", Count: 2})
	if !ok {
		t.Fatalf("expected struct to be rendered as pretty JSON")
	}
	if pretty == "" || pretty[0] != '{' {
		t.Fatalf("expected pretty JSON object, got %q", pretty)
	}
	if _, ok := prettyJSONString("plain text"); ok {
		t.Fatalf("expected plain string to stay inline")
	}
}

func TestFormatEventLine_QuotesSpacedValues(t *testing.T) {
	line := FormatEventLine(Event{
		Time:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local),
		Level:   slog.LevelWarn,
		Message: "dispatch failed",
		Fields: map[string]any{
			"target": "Microsoft Print to PDF",
			"error":  errors.New("printer offline"),
		},
	})
	want := `09:30:00 [WARN] dispatch failed target="Microsoft Print to PDF" error="printer offline"` + "\n"
	if line != want {
		t.Fatalf("FormatEventLine() = %q, want %q", line, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("  \n "); got != "<empty>" {
		t.Fatalf("Truncate(blank) = %q", got)
	}
	long := strings.Repeat("x", clipLimit+10)
	if got := Truncate(long); len(got) != clipLimit+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("Truncate(long) len = %d", len(got))
	}
}
