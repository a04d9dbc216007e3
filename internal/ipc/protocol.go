package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/config"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/renderer"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetDisplays   CommandType = "GET_DISPLAYS"
	CommandPause         CommandType = "PAUSE"
	CommandResume        CommandType = "RESUME"
	CommandTogglePause   CommandType = "TOGGLE_PAUSE"
	CommandSetMode       CommandType = "SET_MODE"
	CommandListProfiles  CommandType = "LIST_PROFILES"
	CommandApplyProfile  CommandType = "APPLY_PROFILE"
	CommandSaveProfile   CommandType = "SAVE_PROFILE"
	CommandDeleteProfile CommandType = "DELETE_PROFILE"
)

const (
	statusOK    = "OK"
	statusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning  bool           `json:"daemon_running"`
	UptimeSeconds  int64          `json:"uptime_seconds"`
	Paused         bool           `json:"paused"`
	State          string         `json:"state"`
	Mode           string         `json:"mode"`
	InactiveColor  string         `json:"inactive_color"`
	InactiveAlpha  float64        `json:"inactive_opacity"`
	ActiveColor    string         `json:"active_color"`
	ActiveAlpha    float64        `json:"active_opacity"`
	FocusedDisplay int            `json:"focused_display"`
	DisplayCount   int            `json:"display_count"`
	Events         uint64         `json:"events"`
	Renders        uint64         `json:"renders"`
	Rebuilds       uint64         `json:"rebuilds"`
	Renderer       renderer.Stats `json:"renderer"`
	ConfigPath     string         `json:"config_path,omitempty"`
}

// DisplayInfo represents information about a single display
type DisplayInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DisplaysData represents the data returned by GET_DISPLAYS
type DisplaysData struct {
	Displays []DisplayInfo `json:"displays"`
}

// PauseData is returned by PAUSE, RESUME and TOGGLE_PAUSE.
type PauseData struct {
	Paused bool `json:"paused"`
}

// ProfileInfo is one entry of LIST_PROFILES.
type ProfileInfo struct {
	Name string `json:"name"`
	config.Profile
}

// ProfilesData represents the data returned by LIST_PROFILES
type ProfilesData struct {
	Profiles []ProfileInfo `json:"profiles"`
}

// ProfilePayload names the profile for APPLY_PROFILE, SAVE_PROFILE and
// DELETE_PROFILE.
type ProfilePayload struct {
	Name string `json:"name"`
}

// ModePayload is the payload for SET_MODE.
type ModePayload struct {
	Mode string `json:"mode"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: statusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: statusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is required")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
