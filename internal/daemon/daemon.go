package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/config"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/hotkeys"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/ipc"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/platform"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/renderer"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/tracker"
)

const defaultPostTimeout = 2 * time.Second

// Options configures a Daemon.
type Options struct {
	Backend platform.Backend
	Config  *config.Config
	// ConfigFiles are the files Config was loaded from, watched for changes.
	ConfigFiles []string
	Logger      *slog.Logger
	// LogLevel, when set, follows log_level across reloads.
	LogLevel *slog.LevelVar

	// SocketPath overrides the IPC socket location.
	SocketPath    string
	SettleDelays  []time.Duration
	WatchInterval time.Duration
	PostTimeout   time.Duration
}

// Daemon wires the window-system backend, tracker, renderer, IPC server,
// hotkeys and config watcher together.
type Daemon struct {
	backend     platform.Backend
	logger      *slog.Logger
	level       *slog.LevelVar
	postTimeout time.Duration
	configPath  string

	renderer *renderer.Renderer
	tracker  *tracker.Tracker
	server   *ipc.Server
	settler  *Settler
	watcher  *config.Watcher
	hotkeys  *hotkeys.Handler

	runCtx context.Context

	// updateMu serializes config read-modify-write cycles.
	updateMu sync.Mutex
	mu       sync.RWMutex
	cfg      *config.Config
	files    []string

	pauseMu sync.Mutex
	paused  bool
}

var _ ipc.Controller = (*Daemon)(nil)

// New builds a daemon. Nothing touches the screen until Run.
func New(opts Options) (*Daemon, error) {
	if opts.Backend == nil {
		return nil, errors.New("daemon: backend is required")
	}
	if opts.Config == nil {
		return nil, errors.New("daemon: config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	calc, err := opts.Config.ToCalculation()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	postTimeout := opts.PostTimeout
	if postTimeout <= 0 {
		postTimeout = defaultPostTimeout
	}

	d := &Daemon{
		backend:     opts.Backend,
		logger:      logger,
		level:       opts.LogLevel,
		postTimeout: postTimeout,
		configPath:  opts.Config.Path(),
		runCtx:      context.Background(),
		cfg:         opts.Config,
		files:       append([]string(nil), opts.ConfigFiles...),
		paused:      opts.Config.Paused,
	}
	if d.level != nil {
		d.level.Set(opts.Config.SlogLevel())
	}

	d.renderer = renderer.New(opts.Backend.Surfaces(), logger.With("component", "renderer"))
	d.tracker = tracker.New(tracker.Options{
		Displays: tracker.DisplaySourceFunc(func() ([]overlay.DisplayInfo, error) {
			displays, err := d.backend.Displays()
			if err != nil {
				return nil, err
			}
			return platform.DisplayInfos(displays), nil
		}),
		Renderer: d.renderer,
		Config:   calc,
		Paused:   opts.Config.Paused,
		Logger:   logger.With("component", "tracker"),
	})

	d.settler = NewSettler(SettlerConfig{
		Delays: opts.SettleDelays,
		Logger: logger.With("component", "settler"),
	}, d.backend.Displays, func() {
		d.post(tracker.TopologyChanged())
	})

	d.watcher = config.NewWatcher(config.WatcherConfig{
		Interval: opts.WatchInterval,
		Logger:   logger.With("component", "config"),
	}, d.watchedFiles, func() {
		if err := d.Reload(); err != nil {
			d.logger.Error("config reload failed", "error", err)
		}
	})

	if opts.SocketPath != "" {
		d.server = ipc.NewServerAt(opts.SocketPath, d, logger.With("component", "ipc"))
	} else {
		server, err := ipc.NewServer(d, logger.With("component", "ipc"))
		if err != nil {
			return nil, err
		}
		d.server = server
	}

	return d, nil
}

// Run starts every component and blocks until ctx is cancelled or the
// window-system event loop exits. Overlays are destroyed before returning.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.runCtx = ctx

	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		d.tracker.Run(ctx)
	}()
	defer func() {
		cancel()
		<-trackerDone
		d.renderer.Close()
	}()

	if err := d.backend.Watch(platform.Notifications{
		ForegroundChanged: func(window platform.WindowID, bounds geometry.Rect) {
			d.post(tracker.ForegroundChanged(uint32(window), bounds))
		},
		GeometryChanged: func(window platform.WindowID, bounds geometry.Rect) {
			d.post(tracker.GeometryChanged(uint32(window), bounds))
		},
		TopologyChanged: func() {
			d.post(tracker.TopologyChanged())
			d.settler.Trigger()
		},
		Error: func(err error) {
			d.logger.Warn("window system error", "error", err)
		},
	}); err != nil {
		return fmt.Errorf("failed to watch window events: %w", err)
	}

	d.setupHotkeys()

	go d.settler.Run(ctx)
	go d.watcher.Run(ctx)

	go func() {
		<-ctx.Done()
		d.backend.Quit()
	}()

	d.logger.Info("spotlight-dimmer daemon started",
		"mode", d.config().Mode,
		"paused", d.isPaused(),
		"socket", d.server.SocketPath())

	d.backend.EventLoop()

	if ctx.Err() == nil {
		return errors.New("window system event loop exited")
	}
	d.logger.Info("shutting down spotlight-dimmer daemon")
	return nil
}

func (d *Daemon) setupHotkeys() {
	d.updateMu.Lock()
	defer d.updateMu.Unlock()

	accessor, ok := d.backend.(hotkeys.X11Accessor)
	if !ok {
		d.logger.Debug("backend has no X11 access, hotkeys disabled")
		return
	}
	handler, err := hotkeys.NewHandler(accessor, d.logger.With("component", "hotkeys"))
	if err != nil {
		d.logger.Warn("hotkeys disabled", "error", err)
		return
	}
	d.hotkeys = handler
	d.registerHotkey(d.config().PauseHotkey)
}

// registerHotkey replaces the pause binding. Callers hold updateMu.
func (d *Daemon) registerHotkey(keys string) {
	if d.hotkeys == nil {
		return
	}
	d.hotkeys.Unregister()
	if err := d.hotkeys.RegisterToggle(keys, func() {
		go func() {
			if _, err := d.TogglePause(); err != nil {
				d.logger.Warn("pause toggle failed", "error", err)
			}
		}()
	}); err != nil {
		d.logger.Warn("failed to register pause hotkey", "error", err)
		return
	}
	if keys != "" {
		d.logger.Info("pause hotkey registered", "keys", keys)
	}
}

// post queues ev, waiting while the tracker queue is full.
func (d *Daemon) post(ev tracker.Event) {
	if err := d.tracker.Post(d.runCtx, ev); err != nil {
		d.logger.Debug("dropped tracker event", "error", err)
	}
}

func (d *Daemon) postTimed(ev tracker.Event) error {
	ctx, cancel := context.WithTimeout(d.runCtx, d.postTimeout)
	defer cancel()
	return d.tracker.Post(ctx, ev)
}

func (d *Daemon) config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Daemon) watchedFiles() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	files := append([]string(nil), d.files...)
	for _, f := range files {
		if f == d.configPath {
			return files
		}
	}
	if d.configPath != "" {
		files = append(files, d.configPath)
	}
	return files
}

func (d *Daemon) isPaused() bool {
	d.pauseMu.Lock()
	defer d.pauseMu.Unlock()
	return d.paused
}

// Status implements ipc.Controller.
func (d *Daemon) Status() ipc.StatusData {
	ts := d.tracker.Status()
	cfg := d.config()
	return ipc.StatusData{
		Paused:         ts.Paused,
		State:          ts.State,
		Mode:           cfg.Mode,
		InactiveColor:  cfg.InactiveColor,
		InactiveAlpha:  cfg.InactiveOpacity,
		ActiveColor:    cfg.ActiveColor,
		ActiveAlpha:    cfg.ActiveOpacity,
		FocusedDisplay: ts.FocusedDisplay,
		DisplayCount:   len(ts.Displays),
		Events:         ts.Events,
		Renders:        ts.Renders,
		Rebuilds:       ts.Rebuilds,
		Renderer:       ts.Renderer,
		ConfigPath:     cfg.Path(),
	}
}

// Displays implements ipc.Controller.
func (d *Daemon) Displays() ([]ipc.DisplayInfo, error) {
	displays, err := d.backend.Displays()
	if err != nil {
		return nil, err
	}
	out := make([]ipc.DisplayInfo, len(displays))
	for i, disp := range displays {
		out[i] = ipc.DisplayInfo{
			ID:     disp.ID,
			Name:   disp.Name,
			X:      disp.Bounds.X,
			Y:      disp.Bounds.Y,
			Width:  disp.Bounds.Width,
			Height: disp.Bounds.Height,
		}
	}
	return out, nil
}

// SetPaused implements ipc.Controller. The new state is written to the
// config file.
func (d *Daemon) SetPaused(paused bool) (bool, error) {
	return d.changePause(func(bool) bool { return paused }, true)
}

// TogglePause implements ipc.Controller.
func (d *Daemon) TogglePause() (bool, error) {
	return d.changePause(func(cur bool) bool { return !cur }, true)
}

func (d *Daemon) changePause(next func(cur bool) bool, persist bool) (bool, error) {
	d.pauseMu.Lock()
	paused := next(d.paused)
	if err := d.postTimed(tracker.PauseRequested(paused)); err != nil {
		cur := d.paused
		d.pauseMu.Unlock()
		return cur, err
	}
	d.paused = paused
	d.pauseMu.Unlock()

	if persist {
		if err := d.updateConfig(func(c *config.Config) error {
			c.Paused = paused
			return nil
		}); err != nil {
			d.logger.Warn("failed to persist pause state", "error", err)
		}
	}
	return paused, nil
}

// SetMode implements ipc.Controller.
func (d *Daemon) SetMode(mode string) error {
	m, err := overlay.ParseMode(mode)
	if err != nil {
		return err
	}
	return d.updateConfig(func(c *config.Config) error {
		c.Mode = m.String()
		return nil
	})
}

// ListProfiles implements ipc.Controller.
func (d *Daemon) ListProfiles() []ipc.ProfileInfo {
	cfg := d.config()
	names := cfg.ListProfiles()
	out := make([]ipc.ProfileInfo, 0, len(names))
	for _, name := range names {
		out = append(out, ipc.ProfileInfo{Name: name, Profile: cfg.Profiles[name]})
	}
	return out
}

// ApplyProfile implements ipc.Controller.
func (d *Daemon) ApplyProfile(name string) error {
	return d.updateConfig(func(c *config.Config) error {
		return c.ApplyProfile(name)
	})
}

// SaveProfile implements ipc.Controller.
func (d *Daemon) SaveProfile(name string) error {
	return d.updateConfig(func(c *config.Config) error {
		return c.SaveProfile(name)
	})
}

// DeleteProfile implements ipc.Controller.
func (d *Daemon) DeleteProfile(name string) error {
	return d.updateConfig(func(c *config.Config) error {
		return c.DeleteProfile(name)
	})
}

// Reload implements ipc.Controller. It re-reads the config file and applies
// whatever changed.
func (d *Daemon) Reload() error {
	d.updateMu.Lock()
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		d.updateMu.Unlock()
		return err
	}
	d.mu.Lock()
	d.files = res.Files
	d.mu.Unlock()
	err = d.applyConfig(res.Config, false)
	d.updateMu.Unlock()
	if err != nil {
		return err
	}

	if res.Config.Paused != d.isPaused() {
		if _, err := d.changePause(func(bool) bool { return res.Config.Paused }, false); err != nil {
			return err
		}
	}
	d.logger.Info("config reloaded", "path", d.configPath)
	return nil
}

func (d *Daemon) updateConfig(fn func(*config.Config) error) error {
	d.updateMu.Lock()
	defer d.updateMu.Unlock()

	next := d.config().Clone()
	if err := fn(next); err != nil {
		return err
	}
	return d.applyConfig(next, true)
}

// applyConfig swaps in next and pushes appearance and hotkey changes out.
// Callers hold updateMu.
func (d *Daemon) applyConfig(next *config.Config, save bool) error {
	if err := next.Validate(); err != nil {
		return err
	}
	calc, err := next.ToCalculation()
	if err != nil {
		return err
	}
	if save {
		if err := next.Save(); err != nil {
			return err
		}
	}

	d.mu.Lock()
	prev := d.cfg
	d.cfg = next
	d.mu.Unlock()

	if d.level != nil {
		d.level.Set(next.SlogLevel())
	}
	if prev.PauseHotkey != next.PauseHotkey {
		d.registerHotkey(next.PauseHotkey)
	}
	if prev.CurrentProfile() != next.CurrentProfile() {
		d.logger.Info("dimming appearance changed", "mode", next.Mode)
		return d.postTimed(tracker.ConfigChanged(calc))
	}
	return nil
}
