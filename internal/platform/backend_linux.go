//go:build linux

package platform

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/renderer"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/x11"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn     *x11.Connection
	surfaces *X11Surfaces
	watcher  *x11.Watcher
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn, surfaces: NewX11Surfaces(conn)}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops EventLoop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{ID: m.ID, Name: m.Name, Bounds: m.Bounds})
	}
	return displays, nil
}

// ActiveWindow returns the focused window and its frame bounds. A zero ID
// means nothing is focused.
func (b *LinuxBackend) ActiveWindow() (WindowID, geometry.Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, geometry.Rect{}, err
	}
	client, _, bounds, err := conn.ActiveFrame()
	if err != nil {
		return 0, geometry.Rect{}, err
	}
	return WindowID(client), bounds, nil
}

// Surfaces returns the overlay surface backend.
func (b *LinuxBackend) Surfaces() renderer.SurfaceBackend {
	return b.surfaces
}

// Watch subscribes n to X notifications and reports the current foreground
// window right away.
func (b *LinuxBackend) Watch(n Notifications) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	watcher, err := conn.Watch(x11.Handlers{
		Foreground: func(window xproto.Window, bounds geometry.Rect) {
			if n.ForegroundChanged != nil {
				n.ForegroundChanged(WindowID(window), bounds)
			}
		},
		Geometry: func(window xproto.Window, bounds geometry.Rect) {
			if n.GeometryChanged != nil {
				n.GeometryChanged(WindowID(window), bounds)
			}
		},
		Screen: func() {
			if n.TopologyChanged != nil {
				n.TopologyChanged()
			}
		},
		Error: n.Error,
	})
	if err != nil {
		return err
	}
	b.watcher = watcher
	watcher.Refresh()
	return nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
