package overlay

import "github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"

// NoDisplay is the focused display index used when no display holds the
// focused window.
const NoDisplay = -1

// Calculator turns focus state into per-display overlay definitions. It owns
// a pool of DisplayState values that is reused across calls, so once the pool
// has grown to the display count a call performs no heap allocation.
//
// A Calculator is not safe for concurrent use.
type Calculator struct {
	states []DisplayState
}

// NewCalculator returns a Calculator with room for n displays.
func NewCalculator(n int) *Calculator {
	return &Calculator{states: make([]DisplayState, 0, n)}
}

// Calculate computes the overlay state of every display.
//
// The returned slice aliases the Calculator's pool and is only valid until
// the next call. Callers that retain results must copy them.
func (c *Calculator) Calculate(displays []DisplayInfo, focused *geometry.Rect, focusedIndex int, cfg CalculationConfig) []DisplayState {
	n := len(displays)
	if cap(c.states) < n {
		c.states = make([]DisplayState, n)
	}
	c.states = c.states[:n]

	for i := range displays {
		d := &displays[i]
		s := &c.states[i]
		s.DisplayIndex = d.Index
		s.DisplayBounds = d.Bounds
		reset(s)

		if focused != nil && d.Index == focusedIndex {
			if cfg.Mode != ModeFullScreen {
				calculateFocused(s, *focused, cfg)
			}
			continue
		}

		color, opacity := cfg.AppearanceFor(RegionFullScreen)
		set(s, RegionFullScreen, d.Bounds, color, opacity)
	}
	return c.states
}

// Reset drops the pooled states. The next Calculate reallocates them.
func (c *Calculator) Reset() {
	c.states = c.states[:0]
}

func reset(s *DisplayState) {
	for i := range s.Overlays {
		s.Overlays[i] = Definition{Region: Region(i)}
	}
}

// set fills slot r; the slot stays hidden when bounds cover no area.
func set(s *DisplayState, r Region, bounds geometry.Rect, color geometry.Color, opacity uint8) {
	def := &s.Overlays[r]
	if bounds.Empty() {
		return
	}
	def.Bounds = bounds
	def.Color = color
	def.Opacity = opacity
	def.Visible = true
}

func calculateFocused(s *DisplayState, window geometry.Rect, cfg CalculationConfig) {
	disp := s.DisplayBounds
	win := window.ClampTo(disp)
	if win.Empty() {
		// Window lies entirely off this display: nothing to ring.
		return
	}

	color, opacity := cfg.InactiveColor, cfg.InactiveOpacity
	set(s, RegionTop, geometry.FromEdges(disp.Left(), disp.Top(), disp.Right(), win.Top()), color, opacity)
	set(s, RegionBottom, geometry.FromEdges(disp.Left(), win.Bottom(), disp.Right(), disp.Bottom()), color, opacity)
	set(s, RegionLeft, geometry.FromEdges(disp.Left(), win.Top(), win.Left(), win.Bottom()), color, opacity)
	set(s, RegionRight, geometry.FromEdges(win.Right(), win.Top(), disp.Right(), win.Bottom()), color, opacity)

	if cfg.Mode == ModePartialWithActive {
		set(s, RegionCenter, win, cfg.ActiveColor, cfg.ActiveOpacity)
	}
}
