package tracker

import (
	"fmt"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
)

// EventKind classifies inbound notifications.
type EventKind int

const (
	EventForegroundChanged EventKind = iota
	EventGeometryChanged
	EventTopologyChanged
	EventPauseRequested
	EventPauseToggled
	EventConfigChanged
)

func (k EventKind) String() string {
	switch k {
	case EventForegroundChanged:
		return "foreground"
	case EventGeometryChanged:
		return "geometry"
	case EventTopologyChanged:
		return "topology"
	case EventPauseRequested:
		return "pause"
	case EventPauseToggled:
		return "toggle-pause"
	case EventConfigChanged:
		return "config"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one notification delivered to the tracker goroutine. Only the
// fields relevant to Kind are set.
type Event struct {
	Kind   EventKind
	Window uint32
	Bounds geometry.Rect
	Paused bool
	Config overlay.CalculationConfig
}

// ForegroundChanged reports a newly active window. window 0 means no
// window holds focus.
func ForegroundChanged(window uint32, bounds geometry.Rect) Event {
	return Event{Kind: EventForegroundChanged, Window: window, Bounds: bounds}
}

// GeometryChanged reports a move or resize of window.
func GeometryChanged(window uint32, bounds geometry.Rect) Event {
	return Event{Kind: EventGeometryChanged, Window: window, Bounds: bounds}
}

// TopologyChanged reports that displays were added, removed or rearranged.
func TopologyChanged() Event {
	return Event{Kind: EventTopologyChanged}
}

// PauseRequested pauses or resumes dimming.
func PauseRequested(paused bool) Event {
	return Event{Kind: EventPauseRequested, Paused: paused}
}

// PauseToggled flips the pause state.
func PauseToggled() Event {
	return Event{Kind: EventPauseToggled}
}

// ConfigChanged replaces the dimming configuration.
func ConfigChanged(cfg overlay.CalculationConfig) Event {
	return Event{Kind: EventConfigChanged, Config: cfg}
}
