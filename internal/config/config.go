// Package config loads clnbrd settings from a YAML file and CLNBRD_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/transaction"
)

// EnvPrefix prefixes environment overrides, e.g. CLNBRD_MONITOR_INTERVAL.
const EnvPrefix = "CLNBRD"

// Config is the complete settings tree.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Clipboard ClipboardConfig `mapstructure:"clipboard"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Paste     PasteConfig     `mapstructure:"paste"`
	Hotkeys   HotkeysConfig   `mapstructure:"hotkeys"`
	History   HistoryConfig   `mapstructure:"history"`
	Profiles  ProfilesConfig  `mapstructure:"profiles"`
	Updates   UpdatesConfig   `mapstructure:"updates"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type ClipboardConfig struct {
	Backend string `mapstructure:"backend" validate:"required,clipboard_backend"`
}

type MonitorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=10ms"`
	Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

type PasteConfig struct {
	Delay        time.Duration `mapstructure:"delay" validate:"gte=0"`
	RestoreDelay time.Duration `mapstructure:"restore_delay" validate:"gte=0"`
	Restore      string        `mapstructure:"restore" validate:"oneof=text full"`
	// Command overrides the detected paste helper.
	Command string `mapstructure:"command"`
}

type HotkeysConfig struct {
	CleanAndPaste string `mapstructure:"clean_and_paste" validate:"omitempty,hotkey"`
	CleanInPlace  string `mapstructure:"clean_in_place" validate:"omitempty,hotkey"`
}

type HistoryConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	MaxItems  int           `mapstructure:"max_items" validate:"gte=0"`
	Retention time.Duration `mapstructure:"retention" validate:"gte=0"`
	MaxBytes  int           `mapstructure:"max_bytes" validate:"gte=0"`
	Encrypt   bool          `mapstructure:"encrypt"`
	Path      string        `mapstructure:"path"`
	KeyPath   string        `mapstructure:"key_path"`
}

type ProfilesConfig struct {
	Path string `mapstructure:"path"`
}

type UpdatesConfig struct {
	Repository string `mapstructure:"repository" validate:"required,contains=/"`
	Prerelease bool   `mapstructure:"prerelease"`
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_HOME"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, "clnbrd"), nil
}

// SetDefaults registers every key with its default so environment
// variables can override keys missing from the file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("clipboard.backend", "auto")

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.interval", "500ms")
	v.SetDefault("monitor.debounce", "100ms")

	v.SetDefault("paste.delay", transaction.DefaultPasteDelay.String())
	v.SetDefault("paste.restore_delay", transaction.DefaultRestoreDelay.String())
	v.SetDefault("paste.restore", string(transaction.RestoreText))
	v.SetDefault("paste.command", "")

	v.SetDefault("hotkeys.clean_and_paste", "ctrl+alt+v")
	v.SetDefault("hotkeys.clean_in_place", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max_items", 100)
	v.SetDefault("history.retention", "72h")
	v.SetDefault("history.max_bytes", 10<<20)
	v.SetDefault("history.encrypt", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.key_path", "")

	v.SetDefault("profiles.path", "")

	v.SetDefault("updates.repository", "oliveoi1/clnbrd")
	v.SetDefault("updates.prerelease", false)
}

// Default returns the configuration with no file and no environment.
func Default() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	return decode(v)
}

// Load reads file, or config.yaml in Dir when file is empty, applies
// environment overrides and validates the result. A missing default file
// is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePaths fills empty file locations relative to Dir.
func (c *Config) resolvePaths() error {
	if c.History.Path != "" && c.History.KeyPath != "" && c.Profiles.Path != "" {
		return nil
	}
	dir, err := Dir()
	if err != nil {
		return err
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(dir, "history.db")
	}
	if c.History.KeyPath == "" {
		c.History.KeyPath = filepath.Join(dir, "history.key")
	}
	if c.Profiles.Path == "" {
		c.Profiles.Path = filepath.Join(dir, "profiles.yaml")
	}
	return nil
}

// TransactionOptions maps paste settings to engine options.
func (c *Config) TransactionOptions() []transaction.Option {
	return []transaction.Option{
		transaction.WithPasteDelay(c.Paste.Delay),
		transaction.WithRestoreDelay(c.Paste.RestoreDelay),
		transaction.WithRestoreMode(transaction.RestoreMode(c.Paste.Restore)),
	}
}

func validBackend(name string) bool {
	return slices.Contains(clipboard.Backends, name)
}
