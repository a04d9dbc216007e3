package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	mode
//	inactive_color
//	inactive_opacity
//	active_color
//	active_opacity
//	paused
//	pause_hotkey
//	log_level
//	profiles
//	profiles.<name>
//	profiles.<name>.<field>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	if name := profileNameFromPath(path); name != "" {
		if base := res.ProfileBases[name]; base != "" {
			return value, Source{Kind: SourceBuiltin, Name: base}, nil
		}
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func profileNameFromPath(path string) string {
	parts := strings.SplitN(path, ".", 3)
	if len(parts) < 2 || parts[0] != "profiles" {
		return ""
	}
	return parts[1]
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if parts[0] != "profiles" && len(parts) != 1 {
		return nil, fmt.Errorf("%s: unknown path", path)
	}
	switch parts[0] {
	case "mode":
		return cfg.Mode, nil
	case "inactive_color":
		return cfg.InactiveColor, nil
	case "inactive_opacity":
		return cfg.InactiveOpacity, nil
	case "active_color":
		return cfg.ActiveColor, nil
	case "active_opacity":
		return cfg.ActiveOpacity, nil
	case "paused":
		return cfg.Paused, nil
	case "pause_hotkey":
		return cfg.PauseHotkey, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "profiles":
		return lookupProfile(cfg, path, parts[1:])
	default:
		return nil, fmt.Errorf("%s: unknown path", path)
	}
}

func lookupProfile(cfg *Config, path string, parts []string) (any, error) {
	if len(parts) == 0 {
		return cfg.ListProfiles(), nil
	}
	p, err := cfg.GetProfile(parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return p, nil
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("%s: unknown path", path)
	}
	switch parts[1] {
	case "mode":
		return p.Mode, nil
	case "inactive_color":
		return p.InactiveColor, nil
	case "inactive_opacity":
		return p.InactiveOpacity, nil
	case "active_color":
		return p.ActiveColor, nil
	case "active_opacity":
		return p.ActiveOpacity, nil
	default:
		return nil, fmt.Errorf("%s: unknown profile field %q", path, parts[1])
	}
}
