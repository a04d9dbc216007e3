package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
)

// ErrProfileNotFound is returned by profile operations on an unknown name.
var ErrProfileNotFound = errors.New("profile not found")

const (
	DefaultMode            = overlay.ModeNameFullScreen
	DefaultInactiveColor   = "#000000"
	DefaultInactiveOpacity = 0.5
	DefaultActiveColor     = "#000000"
	DefaultActiveOpacity   = 0.3
	DefaultPauseHotkey     = "Mod4-Mod1-d"
	DefaultLogLevel        = "info"
)

// Profile is a named dimming appearance.
type Profile struct {
	Mode            string  `yaml:"mode" json:"mode"`
	InactiveColor   string  `yaml:"inactive_color" json:"inactive_color"`
	InactiveOpacity float64 `yaml:"inactive_opacity" json:"inactive_opacity"`
	ActiveColor     string  `yaml:"active_color" json:"active_color"`
	ActiveOpacity   float64 `yaml:"active_opacity" json:"active_opacity"`
}

// Config is the effective dimmer configuration.
type Config struct {
	// Mode is one of fullscreen, partial, partial-with-active.
	Mode            string  `yaml:"mode"`
	InactiveColor   string  `yaml:"inactive_color"`
	InactiveOpacity float64 `yaml:"inactive_opacity"` // 0.0-1.0
	ActiveColor     string  `yaml:"active_color"`
	ActiveOpacity   float64 `yaml:"active_opacity"` // 0.0-1.0

	// Paused is restored at startup; the daemon writes it back on change.
	Paused bool `yaml:"paused"`
	// PauseHotkey toggles pause. Empty disables the hotkey.
	PauseHotkey string `yaml:"pause_hotkey"`
	LogLevel    string `yaml:"log_level"`

	Profiles map[string]Profile `yaml:"profiles,omitempty"`

	// path is where Save writes; empty means DefaultConfigPath.
	path string
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Mode:            DefaultMode,
		InactiveColor:   DefaultInactiveColor,
		InactiveOpacity: DefaultInactiveOpacity,
		ActiveColor:     DefaultActiveColor,
		ActiveOpacity:   DefaultActiveOpacity,
		PauseHotkey:     DefaultPauseHotkey,
		LogLevel:        DefaultLogLevel,
		Profiles:        BuiltinProfiles(),
	}
}

// Path returns the file Save writes to.
func (c *Config) Path() string {
	return c.path
}

// SetPath overrides the file Save writes to.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Profiles = make(map[string]Profile, len(c.Profiles))
	for name, p := range c.Profiles {
		out.Profiles[name] = p
	}
	return &out
}

// ToCalculation converts the config to calculator input. Opacities are
// clamped to [0,1] and truncated to a byte.
func (c *Config) ToCalculation() (overlay.CalculationConfig, error) {
	return c.CurrentProfile().ToCalculation()
}

// ToCalculation converts a profile to calculator input.
func (p Profile) ToCalculation() (overlay.CalculationConfig, error) {
	mode, err := overlay.ParseMode(p.Mode)
	if err != nil {
		return overlay.CalculationConfig{}, err
	}
	inactive, err := geometry.ParseHex(p.InactiveColor)
	if err != nil {
		return overlay.CalculationConfig{}, fmt.Errorf("inactive_color: %w", err)
	}
	active, err := geometry.ParseHex(p.ActiveColor)
	if err != nil {
		return overlay.CalculationConfig{}, fmt.Errorf("active_color: %w", err)
	}
	return overlay.CalculationConfig{
		Mode:            mode,
		InactiveColor:   inactive,
		InactiveOpacity: geometry.OpacityByte(p.InactiveOpacity),
		ActiveColor:     active,
		ActiveOpacity:   geometry.OpacityByte(p.ActiveOpacity),
	}, nil
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CurrentProfile captures the active appearance as a profile.
func (c *Config) CurrentProfile() Profile {
	return Profile{
		Mode:            c.Mode,
		InactiveColor:   c.InactiveColor,
		InactiveOpacity: c.InactiveOpacity,
		ActiveColor:     c.ActiveColor,
		ActiveOpacity:   c.ActiveOpacity,
	}
}

// ListProfiles returns profile names in sorted order.
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProfile looks up a profile by name.
func (c *Config) GetProfile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p, nil
}

// ApplyProfile replaces the active appearance with the named profile.
func (c *Config) ApplyProfile(name string) error {
	p, err := c.GetProfile(name)
	if err != nil {
		return err
	}
	if err := validateProfile("profiles."+name, p); err != nil {
		return err
	}
	c.Mode = p.Mode
	c.InactiveColor = p.InactiveColor
	c.InactiveOpacity = p.InactiveOpacity
	c.ActiveColor = p.ActiveColor
	c.ActiveOpacity = p.ActiveOpacity
	return nil
}

// SaveProfile stores the active appearance under name, replacing any
// existing profile of that name.
func (c *Config) SaveProfile(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Path: "profiles", Err: fmt.Errorf("profile name must not be empty")}
	}
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	c.Profiles[name] = c.CurrentProfile()
	return nil
}

// DeleteProfile removes a profile.
func (c *Config) DeleteProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	delete(c.Profiles, name)
	return nil
}

// Save validates and writes the config to its source file.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path := c.path
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Validate checks every field and every profile.
func (c *Config) Validate() error {
	if err := validateProfile("", c.CurrentProfile()); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	for _, name := range c.ListProfiles() {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "profiles", Err: fmt.Errorf("profiles contains an empty name")}
		}
		if err := validateProfile("profiles."+name, c.Profiles[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateProfile(prefix string, p Profile) error {
	path := func(field string) string {
		if prefix == "" {
			return field
		}
		return prefix + "." + field
	}
	if _, err := overlay.ParseMode(p.Mode); err != nil {
		return &ValidationError{Path: path("mode"), Err: err}
	}
	if _, err := geometry.ParseHex(p.InactiveColor); err != nil {
		return &ValidationError{Path: path("inactive_color"), Err: err}
	}
	if _, err := geometry.ParseHex(p.ActiveColor); err != nil {
		return &ValidationError{Path: path("active_color"), Err: err}
	}
	if p.InactiveOpacity < 0 || p.InactiveOpacity > 1 {
		return &ValidationError{Path: path("inactive_opacity"), Err: fmt.Errorf("opacity must be between 0.0 and 1.0")}
	}
	if p.ActiveOpacity < 0 || p.ActiveOpacity > 1 {
		return &ValidationError{Path: path("active_opacity"), Err: fmt.Errorf("opacity must be between 0.0 and 1.0")}
	}
	return nil
}
