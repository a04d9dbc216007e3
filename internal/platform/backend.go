package platform

import (
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/renderer"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Display describes a physical display.
type Display struct {
	ID     int           `json:"id"`
	Name   string        `json:"name"`
	Bounds geometry.Rect `json:"bounds"`
}

// Notifications are the window-system events the dimmer reacts to. They may
// be invoked from a goroutine other than the caller of Watch.
type Notifications struct {
	ForegroundChanged func(window WindowID, bounds geometry.Rect)
	GeometryChanged   func(window WindowID, bounds geometry.Rect)
	TopologyChanged   func()
	Error             func(err error)
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Displays() ([]Display, error)
	ActiveWindow() (WindowID, geometry.Rect, error)
	Surfaces() renderer.SurfaceBackend
	Watch(n Notifications) error
	EventLoop()
	Quit()
	Disconnect()
}

// DisplayInfos converts enumerated displays to calculator input. Indices are
// positions in the enumeration.
func DisplayInfos(displays []Display) []overlay.DisplayInfo {
	infos := make([]overlay.DisplayInfo, len(displays))
	for i, d := range displays {
		infos[i] = overlay.DisplayInfo{Index: d.ID, Bounds: d.Bounds}
	}
	return infos
}

// SameTopology reports whether two enumerations describe the same displays.
func SameTopology(a, b []Display) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Bounds != b[i].Bounds {
			return false
		}
	}
	return true
}
