package rules

import (
	"path/filepath"
	"strings"
)

// Matcher holds an immutable, ordered copy of the session's rules.
type Matcher struct {
	rules []Rule
}

func NewMatcher(list []Rule) *Matcher {
	copied := make([]Rule, len(list))
	for i, r := range list {
		r.Patterns = append([]string(nil), r.Patterns...)
		copied[i] = r
	}
	return &Matcher{rules: copied}
}

// Resolve returns the first rule, in list order, whose root contains path
// and whose patterns contain a suffix of path. ok is false when nothing
// matches; that is the expected outcome for unrelated files.
func (m *Matcher) Resolve(path string) (Rule, int, bool) {
	if m == nil || path == "" {
		return Rule{}, -1, false
	}
	clean := filepath.Clean(path)
	for i, r := range m.rules {
		if !HasPathPrefix(clean, r.Root) {
			continue
		}
		if !matchesSuffix(clean, r.Patterns) {
			continue
		}
		return r, i, true
	}
	return Rule{}, -1, false
}

func (m *Matcher) Rules() []Rule {
	if m == nil {
		return nil
	}
	return append([]Rule(nil), m.rules...)
}

func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

func matchesSuffix(path string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}
