package x11

import (
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/pkg/errors"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// HasShape reports whether overlays can be made click-through.
	HasShape bool
	// HasRandR reports whether monitors come from RandR CRTCs.
	HasRandR bool
}

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "connect to X server")
	}

	// Initialize keybind module (required for global hotkeys)
	keybind.Initialize(xu)

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	c.HasShape = shape.Init(xu.Conn()) == nil
	c.HasRandR = randr.Init(xu.Conn()) == nil
	return c, nil
}

// Screen returns the default screen.
func (c *Connection) Screen() *xproto.ScreenInfo {
	return c.XUtil.Screen()
}

// Sync blocks until the server has processed every request sent so far.
func (c *Connection) Sync() error {
	_, err := xproto.GetInputFocus(c.XUtil.Conn()).Reply()
	return errors.Wrap(err, "sync with X server")
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit makes EventLoop return after the current event.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
