package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawProfile is a profile as written in YAML; nil fields are unset.
type RawProfile struct {
	Mode            *string  `yaml:"mode"`
	InactiveColor   *string  `yaml:"inactive_color"`
	InactiveOpacity *float64 `yaml:"inactive_opacity"`
	ActiveColor     *string  `yaml:"active_color"`
	ActiveOpacity   *float64 `yaml:"active_opacity"`
}

// RawConfig is one YAML file before defaults are applied.
type RawConfig struct {
	Include         IncludeList           `yaml:"include"`
	Mode            *string               `yaml:"mode"`
	InactiveColor   *string               `yaml:"inactive_color"`
	InactiveOpacity *float64              `yaml:"inactive_opacity"`
	ActiveColor     *string               `yaml:"active_color"`
	ActiveOpacity   *float64              `yaml:"active_opacity"`
	Paused          *bool                 `yaml:"paused"`
	PauseHotkey     *string               `yaml:"pause_hotkey"`
	LogLevel        *string               `yaml:"log_level"`
	Profiles        map[string]RawProfile `yaml:"profiles"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Mode != nil {
		out.Mode = overlay.Mode
	}
	if overlay.InactiveColor != nil {
		out.InactiveColor = overlay.InactiveColor
	}
	if overlay.InactiveOpacity != nil {
		out.InactiveOpacity = overlay.InactiveOpacity
	}
	if overlay.ActiveColor != nil {
		out.ActiveColor = overlay.ActiveColor
	}
	if overlay.ActiveOpacity != nil {
		out.ActiveOpacity = overlay.ActiveOpacity
	}
	if overlay.Paused != nil {
		out.Paused = overlay.Paused
	}
	if overlay.PauseHotkey != nil {
		out.PauseHotkey = overlay.PauseHotkey
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}

	if overlay.Profiles != nil {
		profiles := make(map[string]RawProfile, len(out.Profiles)+len(overlay.Profiles))
		for name, p := range out.Profiles {
			profiles[name] = p
		}
		for name, p := range overlay.Profiles {
			base, ok := profiles[name]
			if !ok {
				profiles[name] = p
				continue
			}
			profiles[name] = mergeRawProfile(base, p)
		}
		out.Profiles = profiles
	}

	return out
}

func mergeRawProfile(base RawProfile, overlay RawProfile) RawProfile {
	out := base
	if overlay.Mode != nil {
		out.Mode = overlay.Mode
	}
	if overlay.InactiveColor != nil {
		out.InactiveColor = overlay.InactiveColor
	}
	if overlay.InactiveOpacity != nil {
		out.InactiveOpacity = overlay.InactiveOpacity
	}
	if overlay.ActiveColor != nil {
		out.ActiveColor = overlay.ActiveColor
	}
	if overlay.ActiveOpacity != nil {
		out.ActiveOpacity = overlay.ActiveOpacity
	}
	return out
}

// applyRawProfile writes the set fields of raw over p.
func applyRawProfile(p Profile, raw RawProfile) Profile {
	if raw.Mode != nil {
		p.Mode = *raw.Mode
	}
	if raw.InactiveColor != nil {
		p.InactiveColor = *raw.InactiveColor
	}
	if raw.InactiveOpacity != nil {
		p.InactiveOpacity = *raw.InactiveOpacity
	}
	if raw.ActiveColor != nil {
		p.ActiveColor = *raw.ActiveColor
	}
	if raw.ActiveOpacity != nil {
		p.ActiveOpacity = *raw.ActiveOpacity
	}
	return p
}
