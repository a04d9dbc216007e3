package config

import "github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"

// BuiltinProfiles returns the built-in profile library.
//
// These are always available to users without needing to define them in YAML.
// A user profile with the same name overrides individual fields.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		"light-mode": {
			Mode:            overlay.ModeNamePartial,
			InactiveColor:   "#000000",
			InactiveOpacity: 0.5,
			ActiveColor:     DefaultActiveColor,
			ActiveOpacity:   DefaultActiveOpacity,
		},
		"dark-mode": {
			Mode:            overlay.ModeNamePartialWithActive,
			InactiveColor:   "#000000",
			InactiveOpacity: 0.7,
			ActiveColor:     "#000000",
			ActiveOpacity:   0.3,
		},
	}
}
