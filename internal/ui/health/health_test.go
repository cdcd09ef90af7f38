package health

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"printwatch/internal/rules"
)

func TestCompute_ClassifiesRuleRoots(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	mkdir := func(name string) string {
		path := filepath.Join(base, name)
		if err := os.MkdirAll(path, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		return path
	}
	write := func(path string, age time.Duration) {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		ts := now.Add(-age)
		if err := os.Chtimes(path, ts, ts); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	clean := mkdir("clean")
	write(filepath.Join(clean, "fresh.pdf"), 10*time.Second) // still within the grace period
	write(filepath.Join(clean, "notes.txt"), time.Hour)      // does not match the rule

	backlog := mkdir("backlog")
	write(filepath.Join(backlog, "stuck.pdf"), 10*time.Minute)

	archive := filepath.Join(clean, "done")
	if err := os.MkdirAll(archive, 0o755); err != nil {
		t.Fatalf("mkdir archive: %v", err)
	}
	write(filepath.Join(archive, "old.pdf"), 2*time.Hour) // archived files never count

	list := []rules.Rule{
		{Root: clean, Patterns: []string{".pdf"}},
		{Root: backlog, Patterns: []string{".pdf"}, Target: "Laser"},
		{Root: filepath.Join(base, "missing"), Patterns: []string{".pdf"}},
	}
	rows, msg := Compute(list, archive, now)
	if msg != "" {
		t.Fatalf("Compute() message = %q, want empty", msg)
	}
	if len(rows) != 3 {
		t.Fatalf("rows len = %d, want 3", len(rows))
	}
	if rows[0].Kind != Active || rows[1].Kind != Warn || rows[2].Kind != Missing {
		t.Fatalf("unexpected kinds: %d %d %d", rows[0].Kind, rows[1].Kind, rows[2].Kind)
	}
	if !strings.Contains(rows[1].Reason, "1 matching file") || rows[1].Target != "Laser" {
		t.Fatalf("backlog row = %#v", rows[1])
	}
}

func TestCompute_ReportsMissingRulesAndBadArchive(t *testing.T) {
	rows, msg := Compute(nil, "", time.Now())
	if len(rows) != 0 || !strings.Contains(msg, "No rules") {
		t.Fatalf("Compute(nil) rows=%d msg=%q", len(rows), msg)
	}

	root := t.TempDir()
	file := filepath.Join(t.TempDir(), "archive.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, msg = Compute([]rules.Rule{{Root: root, Patterns: []string{".pdf"}}}, file, time.Now())
	if !strings.Contains(msg, "not a directory") {
		t.Fatalf("Compute(file archive) msg=%q", msg)
	}
}
