package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Settings is what the front ends remember between runs.
type Settings struct {
	RulesFile      string `json:"rules_file"`
	Archive        string `json:"archive"`
	RecordDir      string `json:"record_dir"`
	AutoStart      bool   `json:"auto_start"`
	Debug          bool   `json:"debug"`
	MinimizeToTray bool   `json:"minimize_to_tray"`
	StartMinimized bool   `json:"start_minimized"`
}

func SettingsPath() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "printwatch", "settings.json"), nil
}

func LoadSettings() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return Settings{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func SaveSettings(settings Settings) error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// MergeOptionsWithSettings fills values the command line left unset from
// saved settings.
func MergeOptionsWithSettings(cli Options, saved Settings) Options {
	if strings.TrimSpace(cli.RulesFile) == "" {
		cli.RulesFile = saved.RulesFile
	}
	if strings.TrimSpace(cli.Archive) == "" {
		cli.Archive = saved.Archive
	}
	if strings.TrimSpace(cli.RecordDir) == "" {
		cli.RecordDir = saved.RecordDir
	}
	if !cli.AutoStart {
		cli.AutoStart = saved.AutoStart
	}
	if !cli.Debug {
		cli.Debug = saved.Debug
	}
	return cli
}

// SettingsFromOptions captures the persisted subset of opts, keeping the
// window preferences from previous.
func SettingsFromOptions(opts Options, previous Settings) Settings {
	previous.RulesFile = strings.TrimSpace(opts.RulesFile)
	previous.Archive = strings.TrimSpace(opts.Archive)
	previous.RecordDir = strings.TrimSpace(opts.RecordDir)
	previous.AutoStart = opts.AutoStart
	previous.Debug = opts.Debug
	return previous
}
