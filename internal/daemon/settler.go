package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/platform"
)

// DefaultSettleDelays are the re-checks scheduled after a display change.
// Some drivers report a new layout in several steps.
var DefaultSettleDelays = []time.Duration{500 * time.Millisecond, 5 * time.Second}

// DisplayLister returns the current display enumeration.
type DisplayLister func() ([]platform.Display, error)

// SettlerConfig holds configuration for the settler.
type SettlerConfig struct {
	Delays []time.Duration
	Logger *slog.Logger
}

// Settler re-enumerates displays a few times after a topology notification
// and reports when the enumeration differs from the one taken when the
// notification arrived.
type Settler struct {
	delays      []time.Duration
	listDisplay DisplayLister
	onChange    func()
	logger      *slog.Logger

	trigger chan struct{}
	last    []platform.Display
}

// NewSettler creates a new settler with the given configuration.
func NewSettler(cfg SettlerConfig, list DisplayLister, onChange func()) *Settler {
	delays := cfg.Delays
	if len(delays) == 0 {
		delays = DefaultSettleDelays
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Settler{
		delays:      delays,
		listDisplay: list,
		onChange:    onChange,
		logger:      logger,
		trigger:     make(chan struct{}, 1),
	}
}

// Trigger restarts the settle schedule. It never blocks.
func (s *Settler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run processes triggers until ctx is cancelled.
func (s *Settler) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	step := 0

	stop := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timerC = nil, nil
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			stop()
			// The trigger's own change was already handled; only later ones count.
			if current := s.snapshot(); current != nil {
				s.last = current
			}
			step = 0
			timer = time.NewTimer(s.delays[0])
			timerC = timer.C
		case <-timerC:
			s.check()
			step++
			if step < len(s.delays) {
				timer = time.NewTimer(s.delays[step] - s.delays[step-1])
				timerC = timer.C
			} else {
				timer, timerC = nil, nil
			}
		}
	}
}

func (s *Settler) check() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			s.logger.Error("settler panic recovered", "error", err)
		}
	}()

	current := s.snapshot()
	if current == nil || platform.SameTopology(s.last, current) {
		return
	}
	s.logger.Info("display layout settled", "displays", len(current))
	s.last = current
	s.onChange()
}

func (s *Settler) snapshot() []platform.Display {
	displays, err := s.listDisplay()
	if err != nil {
		s.logger.Warn("settler: failed to enumerate displays", "error", err)
		return nil
	}
	return displays
}
