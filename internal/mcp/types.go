package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Paused         bool    `json:"paused"`
	State          string  `json:"state"`
	Mode           string  `json:"mode"`
	InactiveColor  string  `json:"inactive_color"`
	InactiveAlpha  float64 `json:"inactive_opacity"`
	ActiveColor    string  `json:"active_color"`
	ActiveAlpha    float64 `json:"active_opacity"`
	FocusedDisplay int     `json:"focused_display"`
	DisplayCount   int     `json:"display_count"`
	UptimeSeconds  int64   `json:"uptime_seconds"`
	Surfaces       int     `json:"surfaces"`
	Failures       uint64  `json:"render_failures"`
	ConfigPath     string  `json:"config_path,omitempty"`
}

// Display describes one monitor known to the daemon.
type Display struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []Display `json:"displays"`
}

// PauseOutput is the output for pause, resume and toggle_pause.
type PauseOutput struct {
	Paused bool `json:"paused"`
}

// SetModeInput is the input for the set_mode tool.
type SetModeInput struct {
	Mode string `json:"mode" jsonschema:"Overlay mode: fullscreen, partial or partial-with-active"`
}

// SetModeOutput is the output for the set_mode tool.
type SetModeOutput struct {
	Mode string `json:"mode"`
}

// Profile describes one named appearance profile.
type Profile struct {
	Name            string  `json:"name"`
	Mode            string  `json:"mode"`
	InactiveColor   string  `json:"inactive_color"`
	InactiveOpacity float64 `json:"inactive_opacity"`
	ActiveColor     string  `json:"active_color"`
	ActiveOpacity   float64 `json:"active_opacity"`
	Current         bool    `json:"current"`
}

// ListProfilesOutput is the output for the list_profiles tool.
type ListProfilesOutput struct {
	Profiles []Profile `json:"profiles"`
}

// ProfileInput is the input for apply_profile, save_profile and
// delete_profile.
type ProfileInput struct {
	Name string `json:"name" jsonschema:"Profile name"`
}

// ProfileOutput is the output for the profile mutation tools.
type ProfileOutput struct {
	Name string `json:"name"`
}

// ReloadOutput is the output for the reload_config tool.
type ReloadOutput struct {
	Reloaded bool `json:"reloaded"`
}
