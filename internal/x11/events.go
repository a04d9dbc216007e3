package x11

import (
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/pkg/errors"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
)

// Handlers receive window-system notifications. They run on the X event
// loop goroutine and must not block for long.
type Handlers struct {
	// Foreground reports a new active window and its frame bounds; window 0
	// means nothing is focused.
	Foreground func(window xproto.Window, bounds geometry.Rect)
	// Geometry reports a move or resize of the active window's frame.
	Geometry func(window xproto.Window, bounds geometry.Rect)
	// Screen reports a monitor or root size change.
	Screen func()
	// Error reports failures while resolving notifications.
	Error func(err error)
}

// Watcher follows the active window and screen configuration.
type Watcher struct {
	conn       *Connection
	handlers   Handlers
	activeAtom xproto.Atom

	// Touched only from the event loop goroutine.
	client xproto.Window
	frame  xproto.Window
}

// Watch subscribes to focus, geometry and screen notifications. Callbacks
// start flowing once EventLoop runs.
func (c *Connection) Watch(h Handlers) (*Watcher, error) {
	atom, err := xprop.Atm(c.XUtil, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return nil, errors.Wrap(err, "intern _NET_ACTIVE_WINDOW")
	}
	w := &Watcher{conn: c, handlers: h, activeAtom: atom}

	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify); err != nil {
		return nil, errors.Wrap(err, "listen on root window")
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom == w.activeAtom {
			w.Refresh()
		}
	}).Connect(c.XUtil, c.Root)

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if ev.Window == c.Root {
			w.screenChanged()
		}
	}).Connect(c.XUtil, c.Root)

	if c.HasRandR {
		err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, randr.NotifyMaskScreenChange).Check()
		if err != nil {
			return nil, errors.Wrap(err, "select randr screen change")
		}
		xevent.HookFun(func(xu *xgbutil.XUtil, event interface{}) bool {
			if _, ok := event.(randr.ScreenChangeNotifyEvent); ok {
				w.screenChanged()
			}
			return true
		}).Connect(c.XUtil)
	}

	return w, nil
}

// Refresh re-reads the active window and reports it. It is called on every
// _NET_ACTIVE_WINDOW change and may be called once before the event loop
// starts to seed the initial state.
func (w *Watcher) Refresh() {
	client, err := w.conn.GetActiveWindow()
	if err != nil {
		w.fail(err)
		return
	}

	if client == 0 {
		w.follow(0, 0)
		w.emitForeground(0, geometry.Rect{})
		return
	}

	switch w.conn.ClassifyWindow(client) {
	case KindTransient:
		return
	case KindDesktop:
		w.follow(0, 0)
		w.emitForeground(0, geometry.Rect{})
		return
	}

	frame, err := w.conn.FrameWindow(client)
	if err != nil {
		w.fail(err)
		return
	}
	bounds, err := w.conn.WindowBounds(frame)
	if err != nil {
		w.fail(err)
		return
	}
	w.follow(client, frame)
	w.emitForeground(client, bounds)
}

// follow moves the ConfigureNotify subscription to a new frame.
func (w *Watcher) follow(client, frame xproto.Window) {
	xu := w.conn.XUtil
	if w.frame == frame {
		w.client = client
		return
	}
	if w.frame != 0 {
		xevent.Detach(xu, w.frame)
		xwindow.New(xu, w.frame).Listen()
	}
	w.client, w.frame = client, frame
	if frame == 0 {
		return
	}

	if err := xwindow.New(xu, frame).Listen(xproto.EventMaskStructureNotify); err != nil {
		w.fail(errors.Wrapf(err, "listen on frame %d", frame))
		return
	}
	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if ev.Window != w.frame || w.handlers.Geometry == nil {
			return
		}
		border := int(ev.BorderWidth)
		w.handlers.Geometry(w.client, geometry.Rect{
			X:      int(ev.X),
			Y:      int(ev.Y),
			Width:  int(ev.Width) + 2*border,
			Height: int(ev.Height) + 2*border,
		})
	}).Connect(xu, frame)
}

func (w *Watcher) emitForeground(client xproto.Window, bounds geometry.Rect) {
	if w.handlers.Foreground != nil {
		w.handlers.Foreground(client, bounds)
	}
}

func (w *Watcher) screenChanged() {
	if w.handlers.Screen != nil {
		w.handlers.Screen()
	}
}

func (w *Watcher) fail(err error) {
	if w.handlers.Error != nil {
		w.handlers.Error(err)
	}
}
