// Package health summarises whether each monitor rule's root is usable and
// whether matching files are piling up in it.
package health

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"printwatch/internal/rules"
)

const RefreshRate = 15 * time.Second

// pendingAfter is how long a matching file may sit in a root before the rule
// is flagged; the pipeline normally moves files within seconds.
const pendingAfter = 2 * time.Minute

// scanLimit caps how many directory entries one rule scan visits.
const scanLimit = 5000

type Kind int

const (
	Missing Kind = iota
	Active
	Warn
	Stale
)

type Row struct {
	Name   string
	Target string
	Kind   Kind
	Reason string
}

func Compute(list []rules.Rule, archive string, now time.Time) ([]Row, string) {
	rows := make([]Row, 0, len(list))
	if len(list) == 0 {
		return rows, "No rules configured."
	}

	for _, rule := range list {
		rows = append(rows, checkRule(rule, archive, now))
	}

	detail := ""
	if strings.TrimSpace(archive) != "" {
		if info, err := os.Stat(archive); err == nil && !info.IsDir() {
			detail = "Archive path is not a directory."
		}
	}
	return rows, detail
}

func checkRule(rule rules.Rule, archive string, now time.Time) Row {
	row := Row{
		Name:   rule.Root + " " + strings.Join(rule.Patterns, ","),
		Target: rule.Target,
		Kind:   Missing,
	}
	info, err := os.Stat(rule.Root)
	if err != nil {
		row.Reason = "Root is not accessible: " + err.Error()
		return row
	}
	if !info.IsDir() {
		row.Reason = "Root is not a directory."
		return row
	}

	pending, oldest, scanErr := pendingFiles(rule, archive, now)
	switch {
	case scanErr != nil:
		row.Kind = Stale
		row.Reason = "Failed to scan root: " + scanErr.Error()
	case pending == 0:
		row.Kind = Active
		row.Reason = "Watching, nothing waiting."
	default:
		row.Kind = Warn
		row.Reason = fmt.Sprintf("%d matching file(s) waiting, oldest %s.", pending, oldest.Round(time.Second))
	}
	return row
}

func pendingFiles(rule rules.Rule, archive string, now time.Time) (int, time.Duration, error) {
	count := 0
	visited := 0
	var oldest time.Duration
	err := filepath.WalkDir(rule.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rule.Root {
				return err
			}
			return fs.SkipDir
		}
		visited++
		if visited > scanLimit {
			return fs.SkipAll
		}
		if archive != "" && rules.HasPathPrefix(path, archive) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !hasAnySuffix(path, rule.Patterns) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		age := now.Sub(info.ModTime())
		if age < pendingAfter {
			return nil
		}
		count++
		oldest = max(oldest, age)
		return nil
	})
	return count, oldest, err
}

func hasAnySuffix(path string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}
