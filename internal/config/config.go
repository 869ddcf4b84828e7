// Package config loads jjk-go settings from defaults, a TOML file, the
// environment and command-line overrides, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	AppName   = "jjk-go"
	EnvPrefix = "JJK_"
)

type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

type Config struct {
	JJ   JJConfig    `koanf:"jj"`
	UI   UIConfig    `koanf:"ui"`
	Log  LogConfig   `koanf:"log"`
	Keys Keybindings `koanf:"keys"`
}

type JJConfig struct {
	Binary          string        `koanf:"binary"`
	Revset          string        `koanf:"revset"`
	Timeout         time.Duration `koanf:"timeout"`
	Bookmark        string        `koanf:"bookmark"`
	IgnoreImmutable bool          `koanf:"ignore_immutable"`
}

type UIConfig struct {
	Mode   Mode `koanf:"mode"`
	Syntax bool `koanf:"syntax"`
	Watch  bool `koanf:"watch"`
	Mouse  bool `koanf:"mouse"`
}

type LogConfig struct {
	File    string `koanf:"file"`
	Verbose bool   `koanf:"verbose"`
}

// Keybindings maps actions to one or more key strings.
type Keybindings map[string][]string

func defaults() map[string]any {
	return map[string]any{
		"jj.binary":           "jj",
		"jj.revset":           "",
		"jj.timeout":          "2m",
		"jj.bookmark":         "main",
		"jj.ignore_immutable": false,
		"ui.mode":             string(ModeAuto),
		"ui.syntax":           true,
		"ui.watch":            true,
		"ui.mouse":            true,
		"log.file":            "",
		"log.verbose":         false,
	}
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	k := koanf.New(".")
	err := k.Load(confmap.Provider(defaults(), "."), nil)
	cfg, decodeErr := decode(k)
	if err = errors.Join(err, decodeErr); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// DefaultLogFile is the log destination when log.file is empty.
func DefaultLogFile() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, AppName+".log"), nil
}

// Load reads the configuration. An explicit path must exist; the default
// path is skipped when absent. overrides are koanf keys set from the command
// line and win over every other source.
func Load(path string, overrides map[string]any) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	return load(koanf.New("."), path, explicit, overrides)
}

func load(k *koanf.Koanf, path string, explicit bool, overrides map[string]any) (*Config, error) {
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	return decode(k)
}

func decode(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Keys = MergeKeybindings(cfg.Keys)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps JJK_JJ_IGNORE_IMMUTABLE to jj.ignore_immutable: only the first
// underscore after the prefix separates the section.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + rest
}

func (c *Config) Validate() error {
	switch c.UI.Mode {
	case ModeAuto, ModeLight, ModeDark:
	default:
		return fmt.Errorf("ui.mode: unknown mode %q (want auto, light or dark)", c.UI.Mode)
	}
	if c.JJ.Timeout < 0 {
		return fmt.Errorf("jj.timeout: must not be negative")
	}
	known := DefaultKeybindings()
	for action := range c.Keys {
		if _, ok := known[action]; !ok {
			return fmt.Errorf("keys.%s: unknown action", action)
		}
	}
	return nil
}

// DefaultKeybindings returns the built-in keybinding map.
func DefaultKeybindings() Keybindings {
	return Keybindings{
		"quit":             {"q", "ctrl+c"},
		"help":             {"?"},
		"up":               {"k", "up"},
		"down":             {"j", "down"},
		"left":             {"h", "left"},
		"right":            {"l", "right"},
		"parent":           {"K"},
		"working_copy":     {"@"},
		"page_up":          {"pgup", "ctrl+u"},
		"page_down":        {"pgdown", "ctrl+d"},
		"home":             {"g", "home"},
		"end":              {"G", "end"},
		"toggle":           {"tab", "enter"},
		"refresh":          {"ctrl+r"},
		"dismiss":          {"esc"},
		"ignore_immutable": {"i"},
		"fetch":            {"f"},
		"pull":             {"F"},
		"abandon":          {"a"},
		"squash":           {"s"},
		"commit":           {"c"},
		"edit":             {"e"},
		"describe":         {"d"},
		"new":              {"n"},
		"undo":             {"u"},
		"push":             {"p"},
		"set_bookmark":     {"m"},
	}
}

// MergeKeybindings overlays user overrides onto defaults.
func MergeKeybindings(overrides Keybindings) Keybindings {
	defaults := DefaultKeybindings()
	for action, keys := range overrides {
		if len(keys) == 0 {
			continue
		}
		defaults[action] = slices.Clone(keys)
	}
	return defaults
}
