package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/pkg/errors"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
)

// WindowKind classifies a window by its EWMH type.
type WindowKind int

const (
	// KindNormal is an application window that can be highlighted.
	KindNormal WindowKind = iota
	// KindDesktop is the desktop background; focusing it means no window is active.
	KindDesktop
	// KindTransient covers docks, panels, splashes and notifications, whose
	// activation should not move the highlight.
	KindTransient
)

// GetActiveWindow returns _NET_ACTIVE_WINDOW, 0 when nothing is focused.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return 0, errors.Wrap(err, "get _NET_ACTIVE_WINDOW")
	}
	return win, nil
}

// ClassifyWindow reports how a focused window should be treated.
func (c *Connection) ClassifyWindow(windowID xproto.Window) WindowKind {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return KindNormal
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return KindNormal
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			return KindDesktop
		case "_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION",
			"_NET_WM_WINDOW_TYPE_TOOLTIP",
			"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU",
			"_NET_WM_WINDOW_TYPE_POPUP_MENU":
			return KindTransient
		}
	}
	return KindNormal
}

// FrameWindow returns the top-level ancestor of windowID, which is the
// window manager's frame for reparenting window managers and the client
// itself otherwise.
func (c *Connection) FrameWindow(windowID xproto.Window) (xproto.Window, error) {
	conn := c.XUtil.Conn()
	current := windowID
	for {
		tree, err := xproto.QueryTree(conn, current).Reply()
		if err != nil {
			return 0, errors.Wrapf(err, "query tree of window %d", current)
		}
		if tree.Parent == c.Root || tree.Parent == 0 {
			return current, nil
		}
		current = tree.Parent
	}
}

// WindowBounds returns the root-relative geometry of windowID, border
// included.
func (c *Connection) WindowBounds(windowID xproto.Window) (geometry.Rect, error) {
	conn := c.XUtil.Conn()
	geom, err := xproto.GetGeometry(conn, xproto.Drawable(windowID)).Reply()
	if err != nil {
		return geometry.Rect{}, errors.Wrapf(err, "get geometry of window %d", windowID)
	}

	translate, err := xproto.TranslateCoordinates(conn, windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return geometry.Rect{}, errors.Wrapf(err, "translate coordinates of window %d", windowID)
	}

	border := int(geom.BorderWidth)
	return geometry.Rect{
		X:      int(translate.DstX) - border,
		Y:      int(translate.DstY) - border,
		Width:  int(geom.Width) + 2*border,
		Height: int(geom.Height) + 2*border,
	}, nil
}

// ActiveFrame resolves the active window, its frame and the frame bounds.
// A zero window means nothing is focused.
func (c *Connection) ActiveFrame() (client, frame xproto.Window, bounds geometry.Rect, err error) {
	client, err = c.GetActiveWindow()
	if err != nil || client == 0 {
		return 0, 0, geometry.Rect{}, err
	}
	frame, err = c.FrameWindow(client)
	if err != nil {
		return 0, 0, geometry.Rect{}, err
	}
	bounds, err = c.WindowBounds(frame)
	if err != nil {
		return 0, 0, geometry.Rect{}, err
	}
	return client, frame, bounds, nil
}
