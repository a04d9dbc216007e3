package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/pkg/errors"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
)

const (
	overlayInstance = "spotlight-dimmer"
	overlayClass    = "SpotlightDimmer"
)

// CreateOverlayWindow creates a hidden override-redirect window painted with
// color at the given opacity. When SHAPE is available its input region is
// emptied so pointer events fall through to the windows below.
func (c *Connection) CreateOverlayWindow(color geometry.Color, opacity uint8) (xproto.Window, error) {
	conn := c.XUtil.Conn()
	screen := c.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, errors.Wrap(err, "allocate window id")
	}

	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		0, 0, // x, y (set on first show)
		1, 1, // width, height (set on first show)
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		// Value list follows mask bit order: back_pixel, override_redirect.
		[]uint32{color.Pixel(), 1},
	).Check()
	if err != nil {
		return 0, errors.Wrap(err, "create overlay window")
	}

	if c.HasShape {
		err = shape.RectanglesChecked(conn, shape.SoSet, shape.SkInput,
			xproto.ClipOrderingUnsorted, wid, 0, 0, nil).Check()
		if err != nil {
			xproto.DestroyWindow(conn, wid)
			return 0, errors.Wrap(err, "clear overlay input shape")
		}
	}

	// Identification only; failures here are cosmetic.
	icccm.WmClassSet(c.XUtil, wid, &icccm.WmClass{Instance: overlayInstance, Class: overlayClass})
	ewmh.WmNameSet(c.XUtil, wid, overlayInstance)
	ewmh.WmWindowTypeSet(c.XUtil, wid, []string{"_NET_WM_WINDOW_TYPE_NOTIFICATION"})

	if err := ewmh.WmWindowOpacitySet(c.XUtil, wid, geometry.OpacityFraction(opacity)); err != nil {
		xproto.DestroyWindow(conn, wid)
		return 0, errors.Wrap(err, "set overlay opacity")
	}
	return wid, nil
}

// DestroyOverlayWindow destroys an overlay window. Errors are ignored; the
// window may already be gone.
func (c *Connection) DestroyOverlayWindow(wid xproto.Window) {
	xproto.DestroyWindow(c.XUtil.Conn(), wid)
}

// QueueOverlayGeometry sends the requests that move, resize and show or
// hide an overlay without waiting for the server. The requests are checked;
// their cookies are appended to pending for CheckQueued.
func (c *Connection) QueueOverlayGeometry(wid xproto.Window, bounds geometry.Rect, visible bool, pending []*xgb.Cookie) []*xgb.Cookie {
	conn := c.XUtil.Conn()
	if !visible {
		return append(pending, xproto.UnmapWindowChecked(conn, wid).Cookie)
	}
	return append(pending,
		xproto.ConfigureWindowChecked(conn, wid, overlayConfigMask, overlayConfigValues(bounds)).Cookie,
		xproto.MapWindowChecked(conn, wid).Cookie)
}

// CheckQueued waits for the server to process every queued request and
// returns the first error among them. One round trip covers the whole list.
func (c *Connection) CheckQueued(pending []*xgb.Cookie) error {
	if err := c.Sync(); err != nil {
		return err
	}
	for _, cookie := range pending {
		if err := cookie.Check(); err != nil {
			return errors.Wrap(err, "queued overlay request")
		}
	}
	return nil
}

// SetOverlayGeometry is QueueOverlayGeometry with error checking.
func (c *Connection) SetOverlayGeometry(wid xproto.Window, bounds geometry.Rect, visible bool) error {
	conn := c.XUtil.Conn()
	if !visible {
		return errors.Wrapf(xproto.UnmapWindowChecked(conn, wid).Check(), "unmap overlay %d", wid)
	}
	if err := xproto.ConfigureWindowChecked(conn, wid, overlayConfigMask, overlayConfigValues(bounds)).Check(); err != nil {
		return errors.Wrapf(err, "configure overlay %d", wid)
	}
	return errors.Wrapf(xproto.MapWindowChecked(conn, wid).Check(), "map overlay %d", wid)
}

// SetOverlayAppearance changes the background pixel and opacity of an
// overlay. The new color shows after RepaintOverlay.
func (c *Connection) SetOverlayAppearance(wid xproto.Window, color geometry.Color, opacity uint8) error {
	conn := c.XUtil.Conn()
	err := xproto.ChangeWindowAttributesChecked(conn, wid, xproto.CwBackPixel, []uint32{color.Pixel()}).Check()
	if err != nil {
		return errors.Wrapf(err, "set overlay %d background", wid)
	}
	return errors.Wrapf(ewmh.WmWindowOpacitySet(c.XUtil, wid, geometry.OpacityFraction(opacity)),
		"set overlay %d opacity", wid)
}

// RepaintOverlay clears the window so the background pixel is redrawn.
func (c *Connection) RepaintOverlay(wid xproto.Window) error {
	return errors.Wrapf(xproto.ClearAreaChecked(c.XUtil.Conn(), false, wid, 0, 0, 0, 0).Check(),
		"repaint overlay %d", wid)
}

// GrabServer suspends processing of other clients' requests.
func (c *Connection) GrabServer() error {
	return errors.Wrap(xproto.GrabServerChecked(c.XUtil.Conn()).Check(), "grab server")
}

// UngrabServer releases a GrabServer.
func (c *Connection) UngrabServer() {
	xproto.UngrabServer(c.XUtil.Conn())
}

// IsBadWindow reports whether err is an X BadWindow error.
func IsBadWindow(err error) bool {
	var werr xproto.WindowError
	return errors.As(err, &werr)
}

const overlayConfigMask = xproto.ConfigWindowX | xproto.ConfigWindowY |
	xproto.ConfigWindowWidth | xproto.ConfigWindowHeight | xproto.ConfigWindowStackMode

func overlayConfigValues(bounds geometry.Rect) []uint32 {
	// X rejects zero-sized windows.
	width, height := max(bounds.Width, 1), max(bounds.Height, 1)
	return []uint32{
		uint32(int32(bounds.X)),
		uint32(int32(bounds.Y)),
		uint32(width),
		uint32(height),
		xproto.StackModeAbove, // Keep on top
	}
}
