package renderer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
)

// createAttempts is how often a surface is tried before its display is
// given up on.
const createAttempts = 2

type slot struct {
	surface Surface
	live    bool
	applied overlay.Definition
}

type displayPool struct {
	index    int
	bounds   geometry.Rect
	disabled bool
	slots    [overlay.RegionCount]slot
}

// move is one pending positional change.
type move struct {
	pool    int
	region  overlay.Region
	bounds  geometry.Rect
	visible bool
	ok      bool
}

// Stats counts renderer activity since the last rebuild.
type Stats struct {
	Displays         int    `json:"displays"`
	DisabledDisplays int    `json:"disabled_displays"`
	Surfaces         int    `json:"surfaces"`
	Updates          uint64 `json:"updates"`
	Batches          uint64 `json:"batches"`
	Fallbacks        uint64 `json:"fallbacks"`
	Failures         uint64 `json:"failures"`
}

// Renderer owns one persistent surface per (display, region) and applies
// overlay states to them with as few window-system calls as possible.
//
// A Renderer is not safe for concurrent use; the tracker goroutine owns it.
type Renderer struct {
	backend SurfaceBackend
	logger  *slog.Logger

	pools []displayPool
	moves []move
	stats Stats
}

// New creates a renderer with an empty surface pool. RebuildForTopology must
// run before the first UpdateOverlays.
func New(backend SurfaceBackend, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		backend: backend,
		logger:  logger,
		moves:   make([]move, 0, 4*overlay.RegionCount),
	}
}

// RebuildForTopology destroys every surface and creates a fresh pool for
// displays, hidden and painted with cfg's appearance. A display whose
// surfaces cannot be created is disabled; the others keep working and the
// returned error lists the disabled displays.
func (r *Renderer) RebuildForTopology(displays []overlay.DisplayInfo, cfg overlay.CalculationConfig) error {
	r.destroyAll()
	r.pools = make([]displayPool, len(displays))
	r.stats = Stats{Displays: len(displays)}

	var errs []error
	for i, d := range displays {
		pool := &r.pools[i]
		pool.index = d.Index
		pool.bounds = d.Bounds
		if err := r.createPool(pool, cfg); err != nil {
			r.stats.DisabledDisplays++
			r.logger.Error("overlay surfaces unavailable, display disabled",
				"display", d.Index,
				"error", err)
			errs = append(errs, fmt.Errorf("display %d: %w", d.Index, err))
		}
	}

	r.logger.Info("surface pool rebuilt",
		"displays", len(displays),
		"surfaces", r.stats.Surfaces)
	return errors.Join(errs...)
}

// UpdateOverlays diffs states against what was last applied and pushes only
// the differences: positional changes through one batch, then recolors.
func (r *Renderer) UpdateOverlays(states []overlay.DisplayState) error {
	r.stats.Updates++
	r.moves = r.moves[:0]

	var unknown error
	for i := range states {
		st := &states[i]
		p := r.poolFor(st.DisplayIndex)
		if p < 0 {
			unknown = fmt.Errorf("%w: display %d", ErrUnknownDisplay, st.DisplayIndex)
			continue
		}
		pool := &r.pools[p]
		if pool.disabled {
			continue
		}
		for reg := range st.Overlays {
			s := &pool.slots[reg]
			def := &st.Overlays[reg]
			if s.live && positionalChange(&s.applied, def) {
				r.moves = append(r.moves, move{
					pool:    p,
					region:  overlay.Region(reg),
					bounds:  def.Bounds,
					visible: def.Visible,
				})
			}
		}
	}

	if len(r.moves) > 0 {
		r.applyMoves()
	}

	for i := range states {
		st := &states[i]
		p := r.poolFor(st.DisplayIndex)
		if p < 0 || r.pools[p].disabled {
			continue
		}
		for reg := range st.Overlays {
			r.applyAppearance(p, &r.pools[p].slots[reg], &st.Overlays[reg])
		}
	}

	return unknown
}

// HideAll hides every visible surface without destroying it.
func (r *Renderer) HideAll() {
	r.moves = r.moves[:0]
	for p := range r.pools {
		pool := &r.pools[p]
		for reg := range pool.slots {
			s := &pool.slots[reg]
			if s.live && s.applied.Visible {
				r.moves = append(r.moves, move{pool: p, region: overlay.Region(reg)})
			}
		}
	}
	if len(r.moves) > 0 {
		r.applyMoves()
	}
}

// Close destroys every surface.
func (r *Renderer) Close() {
	r.destroyAll()
	r.pools = nil
}

// Stats returns a snapshot of renderer counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Applied returns the definition last applied to a slot.
func (r *Renderer) Applied(displayIndex int, region overlay.Region) (overlay.Definition, bool) {
	p := r.poolFor(displayIndex)
	if p < 0 || region < 0 || int(region) >= overlay.RegionCount {
		return overlay.Definition{}, false
	}
	s := &r.pools[p].slots[region]
	if !s.live {
		return overlay.Definition{}, false
	}
	return s.applied, true
}

// positionalChange reports whether def needs a move, resize, show or hide.
// Bounds of a surface that stays hidden are irrelevant.
func positionalChange(applied, def *overlay.Definition) bool {
	if applied.Visible != def.Visible {
		return true
	}
	return def.Visible && applied.Bounds != def.Bounds
}

func (r *Renderer) applyMoves() {
	if err := r.commitBatch(); err == nil {
		r.stats.Batches++
		for i := range r.moves {
			r.moves[i].ok = true
		}
	} else {
		r.stats.Fallbacks++
		r.logger.Warn("batch update failed, applying surfaces individually",
			"surfaces", len(r.moves),
			"error", err)
		for i := range r.moves {
			m := &r.moves[i]
			s := &r.pools[m.pool].slots[m.region]
			if !s.live {
				continue
			}
			if err := r.backend.SetGeometry(s.surface, m.bounds, m.visible); err != nil {
				r.surfaceFailed(m.pool, m.region, err)
				continue
			}
			m.ok = true
		}
	}

	for i := range r.moves {
		m := &r.moves[i]
		s := &r.pools[m.pool].slots[m.region]
		if !m.ok || !s.live {
			continue
		}
		s.applied.Visible = m.visible
		if m.visible {
			s.applied.Bounds = m.bounds
		}
	}
}

// commitBatch queues every pending move into one batch. The batch is
// released on every return path.
func (r *Renderer) commitBatch() error {
	b, err := r.backend.BeginBatch(len(r.moves))
	if err != nil {
		if errors.Is(err, ErrBatchUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrBatchUnavailable, err)
	}
	defer b.Release()

	for i := range r.moves {
		m := &r.moves[i]
		s := &r.pools[m.pool].slots[m.region]
		if err := b.Queue(s.surface, m.bounds, m.visible); err != nil {
			return fmt.Errorf("queue %s surface on display %d: %w", m.region, r.pools[m.pool].index, err)
		}
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// applyAppearance recolors a visible slot whose color or opacity changed and
// records the full definition as applied.
func (r *Renderer) applyAppearance(p int, s *slot, def *overlay.Definition) {
	if !s.live || !def.Visible || !s.applied.Visible || s.applied.Bounds != def.Bounds {
		return
	}
	if s.applied.Color == def.Color && s.applied.Opacity == def.Opacity {
		return
	}
	if err := r.backend.SetAppearance(s.surface, def.Color, def.Opacity); err != nil {
		r.surfaceFailed(p, def.Region, err)
		return
	}
	if err := r.backend.Repaint(s.surface); err != nil {
		r.logger.Debug("surface repaint failed", "display", r.pools[p].index, "region", def.Region.String(), "error", err)
	}
	s.applied.CopyFrom(def)
}

// surfaceFailed handles a failed call on one surface. An invalid handle is
// replaced by a fresh hidden surface; if that fails the display is disabled.
func (r *Renderer) surfaceFailed(p int, region overlay.Region, err error) {
	r.stats.Failures++
	pool := &r.pools[p]
	r.logger.Warn("overlay surface update failed",
		"display", pool.index,
		"region", region.String(),
		"error", err)
	if !errors.Is(err, ErrSurfaceInvalid) {
		return
	}

	s := &pool.slots[region]
	r.backend.DestroySurface(s.surface)
	s.live = false
	r.stats.Surfaces--

	surface, cerr := r.createSurface(pool.index, region, s.applied.Color, s.applied.Opacity)
	if cerr != nil {
		r.logger.Error("overlay surface could not be recreated, display disabled",
			"display", pool.index,
			"region", region.String(),
			"error", cerr)
		r.destroyPool(pool)
		pool.disabled = true
		r.stats.DisabledDisplays++
		return
	}
	s.surface = surface
	s.live = true
	s.applied.Visible = false
	r.stats.Surfaces++
}

func (r *Renderer) createPool(pool *displayPool, cfg overlay.CalculationConfig) error {
	for reg := range pool.slots {
		region := overlay.Region(reg)
		color, opacity := cfg.AppearanceFor(region)
		surface, err := r.createSurface(pool.index, region, color, opacity)
		if err != nil {
			r.destroyPool(pool)
			pool.disabled = true
			return fmt.Errorf("create %s surface: %w", region, err)
		}
		pool.slots[reg] = slot{
			surface: surface,
			live:    true,
			applied: overlay.Definition{Region: region, Color: color, Opacity: opacity},
		}
		r.stats.Surfaces++
	}
	return nil
}

func (r *Renderer) createSurface(display int, region overlay.Region, color geometry.Color, opacity uint8) (Surface, error) {
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		var s Surface
		s, err = r.backend.CreateSurface(display, region, color, opacity)
		if err == nil {
			return s, nil
		}
	}
	return 0, err
}

func (r *Renderer) destroyPool(pool *displayPool) {
	for reg := range pool.slots {
		s := &pool.slots[reg]
		if s.live {
			r.backend.DestroySurface(s.surface)
			r.stats.Surfaces--
		}
		*s = slot{}
	}
}

func (r *Renderer) destroyAll() {
	for p := range r.pools {
		r.destroyPool(&r.pools[p])
	}
}

func (r *Renderer) poolFor(displayIndex int) int {
	for i := range r.pools {
		if r.pools[i].index == displayIndex {
			return i
		}
	}
	return -1
}
