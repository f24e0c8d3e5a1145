package powermap

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"gridmap/internal/api"
	"gridmap/internal/geom"
)

// Source serves the boundary and the power infrastructure of a region.
// *api.Client and *dataset.Dataset both satisfy it.
type Source interface {
	Boundary(ctx context.Context) (*geojson.FeatureCollection, error)
	Power(ctx context.Context, r geom.Region) (*api.PowerResult, error)
}

// LoadGuard allows a single load per session: one in flight at a time and
// none after one has completed. A failed load may be retried.
type LoadGuard struct {
	inFlight bool
	loaded   bool
}

// TryBegin claims the guard. It must be called before the fetch starts.
func (g *LoadGuard) TryBegin() bool {
	if g.inFlight || g.loaded {
		return false
	}
	g.inFlight = true
	return true
}

func (g *LoadGuard) Finish(ok bool) {
	g.inFlight = false
	if ok {
		g.loaded = true
	}
}

func (g LoadGuard) InFlight() bool { return g.inFlight }
func (g LoadGuard) Loaded() bool   { return g.loaded }

type powerLoadedMsg struct {
	result *api.PowerResult
	err    error
	took   time.Duration
}

type boundaryLoadedMsg struct {
	fc  *geojson.FeatureCollection
	err error
}

// Loader fetches the region once and publishes it to the engine.
type Loader struct {
	src     Source
	eng     SourceEngine
	region  geom.Region
	timeout time.Duration
	log     zerolog.Logger

	guard    LoadGuard
	boundary LoadGuard
	stats    *geom.Stats
	fetches  int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewLoader(src Source, eng SourceEngine, region geom.Region, timeout time.Duration, log zerolog.Logger) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{src: src, eng: eng, region: region, timeout: timeout, log: log, ctx: ctx, cancel: cancel}
}

// LoadOnce returns the command fetching the power data, or nil when a load
// is in flight or has already completed.
func (l *Loader) LoadOnce() tea.Cmd {
	if !l.guard.TryBegin() {
		l.log.Debug().Bool("in_flight", l.guard.InFlight()).Bool("loaded", l.guard.Loaded()).Msg("load skipped")
		return nil
	}
	l.fetches++
	src, region, ctx, timeout := l.src, l.region, l.ctx, l.timeout
	l.log.Info().Str("bbox", region.String()).Msg("loading power data")
	return func() tea.Msg {
		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		start := time.Now()
		res, err := src.Power(ctx, region)
		return powerLoadedMsg{result: res, err: err, took: time.Since(start)}
	}
}

// LoadBoundary returns the command fetching the boundary once.
func (l *Loader) LoadBoundary() tea.Cmd {
	if !l.boundary.TryBegin() {
		return nil
	}
	src, ctx, timeout := l.src, l.ctx, l.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		fc, err := src.Boundary(ctx)
		return boundaryLoadedMsg{fc: fc, err: err}
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// publishPower merges endpoint markers into the result and publishes it as
// one update, then creates missing layers with visibility v. The returned
// banner is non-nil only when the failure leaves the map without data.
func (l *Loader) publishPower(msg powerLoadedMsg, v Visibility) *Banner {
	if msg.err != nil {
		l.guard.Finish(false)
		if l.eng.HasSource(SourcePower) {
			l.log.Warn().Err(msg.err).Msg("power reload failed, keeping current data")
			return nil
		}
		l.log.Error().Err(msg.err).Msg("power load failed")
		b := fetchBanner("power data", msg.err)
		return &b
	}
	if msg.result == nil {
		msg.result = &api.PowerResult{}
	}
	fc := msg.result.GeoJSON
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	merged := geom.WithEndpoints(fc)
	if err := publish(l.eng, SourcePower, merged); err != nil {
		l.guard.Finish(false)
		l.log.Error().Err(err).Msg("publish power data")
		b := renderBanner(err)
		return &b
	}
	if err := EnsureLayers(l.eng, v); err != nil {
		l.guard.Finish(false)
		l.log.Error().Err(err).Msg("create power layers")
		b := renderBanner(err)
		return &b
	}
	l.guard.Finish(true)
	stats := msg.result.Stats
	l.stats = &stats
	l.log.Info().
		Int("features", len(fc.Features)).
		Int("published", len(merged.Features)).
		Dur("took", msg.took).
		Float64("transmission_miles", stats.TransmissionMiles).
		Float64("distribution_miles", stats.DistributionMiles).
		Int("transformers", stats.Transformers()).
		Msg("power data loaded")
	return nil
}

func (l *Loader) publishBoundary(msg boundaryLoadedMsg) *Banner {
	l.boundary.Finish(msg.err == nil)
	if msg.err != nil {
		if l.eng.HasSource(SourceBoundary) {
			l.log.Warn().Err(msg.err).Msg("boundary reload failed")
			return nil
		}
		l.log.Error().Err(msg.err).Msg("boundary load failed")
		b := fetchBanner("boundary", msg.err)
		return &b
	}
	if msg.fc == nil {
		msg.fc = geojson.NewFeatureCollection()
	}
	if err := publishBoundary(l.eng, msg.fc); err != nil {
		l.log.Error().Err(err).Msg("publish boundary")
		b := renderBanner(err)
		return &b
	}
	l.log.Info().Int("features", len(msg.fc.Features)).Msg("boundary loaded")
	return nil
}

// Stats returns the statistics of the last successful load.
func (l *Loader) Stats() (geom.Stats, bool) {
	if l.stats == nil {
		return geom.Stats{}, false
	}
	return *l.stats, true
}

func (l *Loader) Guard() LoadGuard { return l.guard }

// Fetches counts the power fetches started.
func (l *Loader) Fetches() int { return l.fetches }

// Close cancels any fetch in flight.
func (l *Loader) Close() { l.cancel() }
