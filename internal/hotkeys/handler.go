package hotkeys

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// X11Accessor is implemented by backends that expose X11 internals.
type X11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	registered []string
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend X11Accessor, logger *slog.Logger) (*Handler, error) {
	xu := backend.XUtil()
	if xu == nil {
		return nil, fmt.Errorf("hotkeys require an X11 connection")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   backend.RootWindow(),
		logger: logger,
	}, nil
}

// RegisterToggle binds keySequence to toggle. An empty sequence disables the
// binding.
func (h *Handler) RegisterToggle(keySequence string, toggle func()) error {
	keySequence = strings.TrimSpace(keySequence)
	if keySequence == "" {
		return nil
	}
	if err := h.RegisterFunc(keySequence, func() {
		h.logger.Info("pause hotkey pressed", "keys", keySequence)
		toggle()
	}); err != nil {
		return fmt.Errorf("failed to register pause hotkey %q: %w", keySequence, err)
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	if err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true); err != nil {
		return err
	}
	h.registered = append(h.registered, keySequence)
	return nil
}

// Unregister releases every grab on the root window so bindings can be
// registered again after a config reload.
func (h *Handler) Unregister() {
	if len(h.registered) == 0 {
		return
	}
	keybind.Detach(h.xu, h.root)
	h.registered = nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	xevent.IgnoreMods = ignoreMasks(caps, numLock, scrollLock)
}

// ignoreMasks returns every combination of the given lock masks, including
// the empty one. Zero and duplicate masks are skipped.
func ignoreMasks(locks ...uint16) []uint16 {
	var base []uint16
	for _, mask := range locks {
		if mask == 0 {
			continue
		}
		dup := false
		for _, b := range base {
			if b == mask {
				dup = true
				break
			}
		}
		if !dup {
			base = append(base, mask)
		}
	}

	out := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
