package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.client.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("get status: %w", err)
	}
	return nil, statusOutput(st), nil
}

func statusOutput(st *ipc.StatusData) StatusOutput {
	return StatusOutput{
		Paused:         st.Paused,
		State:          st.State,
		Mode:           st.Mode,
		InactiveColor:  st.InactiveColor,
		InactiveAlpha:  st.InactiveAlpha,
		ActiveColor:    st.ActiveColor,
		ActiveAlpha:    st.ActiveAlpha,
		FocusedDisplay: st.FocusedDisplay,
		DisplayCount:   st.DisplayCount,
		UptimeSeconds:  st.UptimeSeconds,
		Surfaces:       st.Renderer.Surfaces,
		Failures:       st.Renderer.Failures,
		ConfigPath:     st.ConfigPath,
	}
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	data, err := s.client.GetDisplays()
	if err != nil {
		return nil, ListDisplaysOutput{}, fmt.Errorf("list displays: %w", err)
	}
	out := ListDisplaysOutput{Displays: make([]Display, 0, len(data.Displays))}
	for _, d := range data.Displays {
		out.Displays = append(out.Displays, Display{
			ID:     d.ID,
			Name:   d.Name,
			X:      d.X,
			Y:      d.Y,
			Width:  d.Width,
			Height: d.Height,
		})
	}
	return nil, out, nil
}

func (s *Server) handlePause(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, PauseOutput, error) {
	paused, err := s.client.Pause()
	if err != nil {
		return nil, PauseOutput{}, fmt.Errorf("pause: %w", err)
	}
	return nil, PauseOutput{Paused: paused}, nil
}

func (s *Server) handleResume(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, PauseOutput, error) {
	paused, err := s.client.Resume()
	if err != nil {
		return nil, PauseOutput{}, fmt.Errorf("resume: %w", err)
	}
	return nil, PauseOutput{Paused: paused}, nil
}

func (s *Server) handleTogglePause(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, PauseOutput, error) {
	paused, err := s.client.TogglePause()
	if err != nil {
		return nil, PauseOutput{}, fmt.Errorf("toggle pause: %w", err)
	}
	return nil, PauseOutput{Paused: paused}, nil
}

func (s *Server) handleSetMode(_ context.Context, _ *mcpsdk.CallToolRequest, args SetModeInput) (*mcpsdk.CallToolResult, SetModeOutput, error) {
	mode := strings.TrimSpace(args.Mode)
	if mode == "" {
		return nil, SetModeOutput{}, fmt.Errorf("mode is required")
	}
	if err := s.client.SetMode(mode); err != nil {
		return nil, SetModeOutput{}, fmt.Errorf("set mode: %w", err)
	}
	// Report the daemon's canonical spelling.
	if st, err := s.client.GetStatus(); err == nil {
		mode = st.Mode
	}
	return nil, SetModeOutput{Mode: mode}, nil
}

func (s *Server) handleListProfiles(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListProfilesOutput, error) {
	data, err := s.client.ListProfiles()
	if err != nil {
		return nil, ListProfilesOutput{}, fmt.Errorf("list profiles: %w", err)
	}
	st, _ := s.client.GetStatus()

	out := ListProfilesOutput{Profiles: make([]Profile, 0, len(data.Profiles))}
	for _, p := range data.Profiles {
		out.Profiles = append(out.Profiles, Profile{
			Name:            p.Name,
			Mode:            p.Mode,
			InactiveColor:   p.InactiveColor,
			InactiveOpacity: p.InactiveOpacity,
			ActiveColor:     p.ActiveColor,
			ActiveOpacity:   p.ActiveOpacity,
			Current:         matchesStatus(p, st),
		})
	}
	return nil, out, nil
}

func matchesStatus(p ipc.ProfileInfo, st *ipc.StatusData) bool {
	if st == nil {
		return false
	}
	return strings.EqualFold(p.Mode, st.Mode) &&
		strings.EqualFold(p.InactiveColor, st.InactiveColor) &&
		p.InactiveOpacity == st.InactiveAlpha &&
		strings.EqualFold(p.ActiveColor, st.ActiveColor) &&
		p.ActiveOpacity == st.ActiveAlpha
}

func (s *Server) handleApplyProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args ProfileInput) (*mcpsdk.CallToolResult, ProfileOutput, error) {
	name, err := requireName(args.Name)
	if err != nil {
		return nil, ProfileOutput{}, err
	}
	if err := s.client.ApplyProfile(name); err != nil {
		return nil, ProfileOutput{}, fmt.Errorf("apply profile %q: %w", name, err)
	}
	return nil, ProfileOutput{Name: name}, nil
}

func (s *Server) handleSaveProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args ProfileInput) (*mcpsdk.CallToolResult, ProfileOutput, error) {
	name, err := requireName(args.Name)
	if err != nil {
		return nil, ProfileOutput{}, err
	}
	if err := s.client.SaveProfile(name); err != nil {
		return nil, ProfileOutput{}, fmt.Errorf("save profile %q: %w", name, err)
	}
	return nil, ProfileOutput{Name: name}, nil
}

func (s *Server) handleDeleteProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args ProfileInput) (*mcpsdk.CallToolResult, ProfileOutput, error) {
	name, err := requireName(args.Name)
	if err != nil {
		return nil, ProfileOutput{}, err
	}
	if err := s.client.DeleteProfile(name); err != nil {
		return nil, ProfileOutput{}, fmt.Errorf("delete profile %q: %w", name, err)
	}
	return nil, ProfileOutput{Name: name}, nil
}

func (s *Server) handleReloadConfig(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ReloadOutput, error) {
	if err := s.client.Reload(); err != nil {
		return nil, ReloadOutput{}, fmt.Errorf("reload config: %w", err)
	}
	return nil, ReloadOutput{Reloaded: true}, nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	return name, nil
}
