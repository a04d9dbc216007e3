package x11

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	Bounds geometry.Rect
}

// GetMonitors retrieves all active monitors using XRandR, ordered left to
// right then top to bottom. Without RandR the whole root window is reported
// as a single monitor.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if !c.HasRandR {
		return c.rootMonitor()
	}

	// Get screen resources
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, errors.Wrap(err, "get screen resources")
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			Name: outputName,
			Bounds: geometry.Rect{
				X:      int(crtcInfo.X),
				Y:      int(crtcInfo.Y),
				Width:  int(crtcInfo.Width),
				Height: int(crtcInfo.Height),
			},
		})
	}

	if len(monitors) == 0 {
		return c.rootMonitor()
	}

	monitors = dedupeMirrored(monitors)
	sort.SliceStable(monitors, func(i, j int) bool {
		a, b := monitors[i].Bounds, monitors[j].Bounds
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	for i := range monitors {
		monitors[i].ID = i
	}
	return monitors, nil
}

func (c *Connection) rootMonitor() ([]Monitor, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, errors.Wrap(err, "get root geometry")
	}
	return []Monitor{{
		ID:     0,
		Name:   "default",
		Bounds: geometry.Rect{Width: int(geom.Width), Height: int(geom.Height)},
	}}, nil
}

// dedupeMirrored drops CRTCs that show exactly the same area as an earlier
// one; cloned outputs must not get two overlay pools.
func dedupeMirrored(monitors []Monitor) []Monitor {
	out := monitors[:0]
	for _, m := range monitors {
		dup := false
		for _, seen := range out {
			if seen.Bounds == m.Bounds {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m)
		}
	}
	return out
}
