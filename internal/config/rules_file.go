package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"printwatch/internal/rules"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported rules file format")
	ErrInvalidRuleFlag   = errors.New("invalid --rule value")
)

// Duration reads Go duration strings ("250ms", "2m") from every rules file
// format.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	value := strings.TrimSpace(string(text))
	if value == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type SettleSection struct {
	Interval Duration `json:"interval" yaml:"interval" toml:"interval"`
	Timeout  Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
}

type PrintSection struct {
	Timeout Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	Hold    Duration `json:"hold" yaml:"hold" toml:"hold"`
	Command string   `json:"command" yaml:"command" toml:"command"`
}

// RulesFile is the on-disk watch configuration.
type RulesFile struct {
	Archive   string        `json:"archive" yaml:"archive" toml:"archive"`
	RecordDir string        `json:"record_dir" yaml:"record_dir" toml:"record_dir"`
	QueueSize int           `json:"queue_size" yaml:"queue_size" toml:"queue_size"`
	Settle    SettleSection `json:"settle" yaml:"settle" toml:"settle"`
	Print     PrintSection  `json:"print" yaml:"print" toml:"print"`
	Rules     []rules.Rule  `json:"rules" yaml:"rules" toml:"rules"`
}

var rulesFileNames = []string{"rules.yaml", "rules.yml", "rules.toml", "rules.json"}

// DefaultRulesFile returns the first printwatch/rules.* found in the XDG
// config search path, or "" when there is none.
func DefaultRulesFile() string {
	for _, name := range rulesFileNames {
		if path, err := xdg.SearchConfigFile(filepath.Join("printwatch", name)); err == nil {
			return path
		}
	}
	return ""
}

func LoadRulesFile(path string) (RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RulesFile{}, err
	}
	var file RulesFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		return RulesFile{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return RulesFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return file, nil
}

// ParseRuleFlag reads "ROOT|.pdf,.docx|PRINTER". The printer part may be
// omitted for the default device.
func ParseRuleFlag(value string) (rules.Rule, error) {
	parts := strings.Split(value, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return rules.Rule{}, fmt.Errorf("%w %q: want ROOT|PATTERNS[|PRINTER]", ErrInvalidRuleFlag, value)
	}
	rule := rules.Rule{Root: strings.TrimSpace(parts[0])}
	for _, pattern := range strings.Split(parts[1], ",") {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			rule.Patterns = append(rule.Patterns, pattern)
		}
	}
	if len(parts) == 3 {
		rule.Target = strings.TrimSpace(parts[2])
	}
	if rule.Root == "" || len(rule.Patterns) == 0 {
		return rules.Rule{}, fmt.Errorf("%w %q: root and at least one pattern are required", ErrInvalidRuleFlag, value)
	}
	return rule, nil
}
