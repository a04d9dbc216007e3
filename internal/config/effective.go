package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw over the defaults. The second return value
// maps each profile name to the builtin it starts from, or "" for profiles
// defined only in files.
func BuildEffectiveConfig(raw RawConfig) (*Config, map[string]string, error) {
	cfg := DefaultConfig()

	if raw.Mode != nil {
		cfg.Mode = strings.TrimSpace(*raw.Mode)
	}
	if raw.InactiveColor != nil {
		cfg.InactiveColor = strings.TrimSpace(*raw.InactiveColor)
	}
	if raw.InactiveOpacity != nil {
		cfg.InactiveOpacity = *raw.InactiveOpacity
	}
	if raw.ActiveColor != nil {
		cfg.ActiveColor = strings.TrimSpace(*raw.ActiveColor)
	}
	if raw.ActiveOpacity != nil {
		cfg.ActiveOpacity = *raw.ActiveOpacity
	}
	if raw.Paused != nil {
		cfg.Paused = *raw.Paused
	}
	if raw.PauseHotkey != nil {
		cfg.PauseHotkey = strings.TrimSpace(*raw.PauseHotkey)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}

	bases := make(map[string]string, len(cfg.Profiles)+len(raw.Profiles))
	for name := range cfg.Profiles {
		bases[name] = name
	}
	for name, rp := range raw.Profiles {
		if strings.TrimSpace(name) == "" {
			return nil, nil, &ValidationError{Path: "profiles", Err: fmt.Errorf("profiles contains an empty name")}
		}
		base, ok := cfg.Profiles[name]
		if !ok {
			base = Profile{
				Mode:            DefaultMode,
				InactiveColor:   DefaultInactiveColor,
				InactiveOpacity: DefaultInactiveOpacity,
				ActiveColor:     DefaultActiveColor,
				ActiveOpacity:   DefaultActiveOpacity,
			}
			bases[name] = ""
		}
		cfg.Profiles[name] = applyRawProfile(base, rp)
	}

	return cfg, bases, nil
}
