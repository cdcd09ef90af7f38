// Package rules resolves a filesystem path to the monitor rule that owns it.
//
// Rules are evaluated strictly in configured order. The first rule whose root
// directory contains the path and whose pattern set has a suffix match wins;
// overlapping roots therefore resolve to the earliest rule, never to the
// longest prefix.
package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoRules     = errors.New("no monitor rules configured")
	ErrInvalidRule = errors.New("invalid monitor rule")
)

// Rule binds a watched root directory to filename suffixes and an output
// target. An empty Target means the system default printer.
type Rule struct {
	Root     string   `json:"root" yaml:"root" toml:"root"`
	Patterns []string `json:"patterns" yaml:"patterns" toml:"patterns"`
	Target   string   `json:"target" yaml:"target" toml:"target"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%s [%s] -> %s", r.Root, strings.Join(r.Patterns, " "), targetLabel(r.Target))
}

func targetLabel(target string) string {
	if strings.TrimSpace(target) == "" {
		return "<default printer>"
	}
	return target
}

// Normalize cleans the root to an absolute path and drops blank patterns.
// Pattern text is otherwise kept verbatim: matching is case-sensitive.
func Normalize(r Rule) (Rule, error) {
	root := strings.TrimSpace(r.Root)
	if root == "" {
		return Rule{}, fmt.Errorf("%w: root directory is required", ErrInvalidRule)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: resolve root %q: %v", ErrInvalidRule, root, err)
	}
	patterns := make([]string, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return Rule{}, fmt.Errorf("%w: rule for %s has no patterns", ErrInvalidRule, abs)
	}
	return Rule{Root: abs, Patterns: patterns, Target: strings.TrimSpace(r.Target)}, nil
}

// Validate normalizes every rule, preserving order.
func Validate(list []Rule) ([]Rule, error) {
	if len(list) == 0 {
		return nil, ErrNoRules
	}
	out := make([]Rule, 0, len(list))
	for i, r := range list {
		normalized, err := Normalize(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, normalized)
	}
	return out, nil
}

// Roots returns the distinct roots in rule order.
func Roots(list []Rule) []string {
	seen := make(map[string]struct{}, len(list))
	roots := make([]string, 0, len(list))
	for _, r := range list {
		if _, ok := seen[r.Root]; ok {
			continue
		}
		seen[r.Root] = struct{}{}
		roots = append(roots, r.Root)
	}
	return roots
}

// HasPathPrefix reports whether path is dir itself or lies beneath it.
// Both arguments are compared as cleaned paths, component by component, so
// "/in/a" does not contain "/in/ab/x.pdf".
func HasPathPrefix(path string, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	if path == dir {
		return true
	}
	if strings.HasSuffix(dir, string(os.PathSeparator)) {
		return strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(os.PathSeparator))
}
