package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == statusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetDisplays retrieves display information
func (c *Client) GetDisplays() (*DisplaysData, error) {
	var data DisplaysData
	if err := c.call(CommandGetDisplays, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Pause hides all overlays and stops tracking.
func (c *Client) Pause() (bool, error) {
	return c.pauseCall(CommandPause)
}

// Resume restarts tracking.
func (c *Client) Resume() (bool, error) {
	return c.pauseCall(CommandResume)
}

// TogglePause flips the pause state and returns the new value.
func (c *Client) TogglePause() (bool, error) {
	return c.pauseCall(CommandTogglePause)
}

func (c *Client) pauseCall(cmd CommandType) (bool, error) {
	var data PauseData
	if err := c.call(cmd, nil, &data); err != nil {
		return false, err
	}
	return data.Paused, nil
}

// SetMode switches the dimming mode.
func (c *Client) SetMode(mode string) error {
	return c.call(CommandSetMode, ModePayload{Mode: mode}, nil)
}

// ListProfiles retrieves the saved profiles.
func (c *Client) ListProfiles() (*ProfilesData, error) {
	var data ProfilesData
	if err := c.call(CommandListProfiles, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ApplyProfile makes a saved profile the active appearance.
func (c *Client) ApplyProfile(name string) error {
	return c.call(CommandApplyProfile, ProfilePayload{Name: name}, nil)
}

// SaveProfile stores the active appearance under name.
func (c *Client) SaveProfile(name string) error {
	return c.call(CommandSaveProfile, ProfilePayload{Name: name}, nil)
}

// DeleteProfile removes a saved profile.
func (c *Client) DeleteProfile(name string) error {
	return c.call(CommandDeleteProfile, ProfilePayload{Name: name}, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
