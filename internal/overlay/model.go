package overlay

import (
	"fmt"
	"strings"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
)

// Region identifies one of the fixed overlay slots of a display. The value
// doubles as the slot index in DisplayState.Overlays.
type Region int

const (
	RegionFullScreen Region = iota
	RegionTop
	RegionBottom
	RegionLeft
	RegionRight
	RegionCenter
)

// RegionCount is the number of slots every display carries, visible or not.
const RegionCount = 6

var regionNames = [RegionCount]string{"fullscreen", "top", "bottom", "left", "right", "center"}

func (r Region) String() string {
	if r < 0 || int(r) >= RegionCount {
		return fmt.Sprintf("region(%d)", int(r))
	}
	return regionNames[r]
}

// Mode selects how much of the non-focused area is shaded.
type Mode int

const (
	// ModeFullScreen dims every display except the one holding the focused window.
	ModeFullScreen Mode = iota
	// ModePartial additionally dims the focused display around the window.
	ModePartial
	// ModePartialWithActive is ModePartial plus a tinted overlay on the window itself.
	ModePartialWithActive
)

const (
	ModeNameFullScreen        = "fullscreen"
	ModeNamePartial           = "partial"
	ModeNamePartialWithActive = "partial-with-active"
)

func (m Mode) String() string {
	switch m {
	case ModeFullScreen:
		return ModeNameFullScreen
	case ModePartial:
		return ModeNamePartial
	case ModePartialWithActive:
		return ModeNamePartialWithActive
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the config spellings plus a few common aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ModeNameFullScreen, "full-screen", "full":
		return ModeFullScreen, nil
	case ModeNamePartial:
		return ModePartial, nil
	case ModeNamePartialWithActive, "partial_with_active", "active":
		return ModePartialWithActive, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (expected %s, %s or %s)",
			s, ModeNameFullScreen, ModeNamePartial, ModeNamePartialWithActive)
	}
}

// Definition is the render state of one (display, region) slot.
type Definition struct {
	Region  Region
	Bounds  geometry.Rect
	Color   geometry.Color
	Opacity uint8
	Visible bool
}

// CopyFrom overwrites d with the contents of src.
func (d *Definition) CopyFrom(src *Definition) {
	*d = *src
}

// DisplayState holds the six slots for one display.
type DisplayState struct {
	DisplayIndex  int
	DisplayBounds geometry.Rect
	Overlays      [RegionCount]Definition
}

// VisibleCount returns how many slots are currently visible.
func (s *DisplayState) VisibleCount() int {
	n := 0
	for i := range s.Overlays {
		if s.Overlays[i].Visible {
			n++
		}
	}
	return n
}

// Overlay returns the slot for region r.
func (s *DisplayState) Overlay(r Region) *Definition {
	return &s.Overlays[r]
}

// DisplayInfo is one enumerated display.
type DisplayInfo struct {
	Index  int
	Bounds geometry.Rect
}

// CalculationConfig is the dimming configuration for one calculation.
type CalculationConfig struct {
	Mode            Mode
	InactiveColor   geometry.Color
	InactiveOpacity uint8
	ActiveColor     geometry.Color
	ActiveOpacity   uint8
}

// AppearanceFor returns the color and opacity region r is drawn with.
func (c CalculationConfig) AppearanceFor(r Region) (geometry.Color, uint8) {
	if r == RegionCenter {
		return c.ActiveColor, c.ActiveOpacity
	}
	return c.InactiveColor, c.InactiveOpacity
}
