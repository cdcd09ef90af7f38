package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"printwatch/internal/dispatch"
	"printwatch/internal/logging"
	"printwatch/internal/rules"
	"printwatch/internal/session"
	"printwatch/internal/watch"
)

// Resolved is the effective configuration after CLI values, saved settings
// and the rules file have been layered, highest precedence first.
type Resolved struct {
	RulesFile      string
	Rules          []rules.Rule
	Archive        string
	RecordDir      string
	QueueSize      int
	SettleInterval time.Duration
	SettleTimeout  time.Duration
	PrintTimeout   time.Duration
	PrintHold      time.Duration
	PrintCommand   string
	DryRun         bool
}

func DefaultArchiveDir() string {
	docs := xdg.UserDirs.Documents
	if strings.TrimSpace(docs) == "" {
		docs = xdg.Home
	}
	return filepath.Join(docs, "printwatch", "processed")
}

func Resolve(opts Options) (Resolved, error) {
	out := Resolved{
		RulesFile:      strings.TrimSpace(opts.RulesFile),
		Archive:        strings.TrimSpace(opts.Archive),
		RecordDir:      strings.TrimSpace(opts.RecordDir),
		QueueSize:      opts.QueueSize,
		SettleInterval: opts.SettleInterval,
		SettleTimeout:  opts.SettleTimeout,
		PrintTimeout:   opts.PrintTimeout,
		PrintHold:      opts.PrintHold,
		PrintCommand:   strings.TrimSpace(opts.PrintCommand),
		DryRun:         opts.DryRun,
	}
	if out.RulesFile == "" {
		out.RulesFile = DefaultRulesFile()
	}
	if out.RulesFile != "" {
		file, err := LoadRulesFile(out.RulesFile)
		if err != nil {
			return Resolved{}, err
		}
		out.Rules = append(out.Rules, file.Rules...)
		out.applyFile(file)
	}
	for _, value := range opts.Rules {
		rule, err := ParseRuleFlag(value)
		if err != nil {
			return Resolved{}, err
		}
		out.Rules = append(out.Rules, rule)
	}
	if out.Archive == "" {
		out.Archive = DefaultArchiveDir()
	}
	if out.RecordDir == "" {
		out.RecordDir = "."
	}
	return out, nil
}

func (r *Resolved) applyFile(file RulesFile) {
	if r.Archive == "" {
		r.Archive = strings.TrimSpace(file.Archive)
	}
	if r.RecordDir == "" {
		r.RecordDir = strings.TrimSpace(file.RecordDir)
	}
	if r.QueueSize <= 0 {
		r.QueueSize = file.QueueSize
	}
	if r.SettleInterval <= 0 {
		r.SettleInterval = time.Duration(file.Settle.Interval)
	}
	if r.SettleTimeout <= 0 {
		r.SettleTimeout = time.Duration(file.Settle.Timeout)
	}
	if r.PrintTimeout <= 0 {
		r.PrintTimeout = time.Duration(file.Print.Timeout)
	}
	if r.PrintHold <= 0 {
		r.PrintHold = time.Duration(file.Print.Hold)
	}
	if r.PrintCommand == "" {
		r.PrintCommand = strings.TrimSpace(file.Print.Command)
	}
}

// SessionConfig builds the session configuration, including the print
// dispatcher selected by the options.
func (r Resolved) SessionConfig(logger *logging.Logger) (session.Config, error) {
	dispatcher, err := dispatch.New(dispatch.Options{Command: r.PrintCommand, DryRun: r.DryRun}, logger)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Rules:            append([]rules.Rule(nil), r.Rules...),
		RelocationTarget: r.Archive,
		RecordDir:        r.RecordDir,
		QueueSize:        r.QueueSize,
		Settle:           watch.SettleOptions{Interval: r.SettleInterval, Timeout: r.SettleTimeout},
		DispatchTimeout:  r.PrintTimeout,
		RelocateDelay:    r.PrintHold,
		Dispatcher:       dispatcher,
	}, nil
}
