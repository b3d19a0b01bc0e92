package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/nbody"
	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/scheduler"
	golog "github.com/tochemey/goakt/v3/log"
	"gonum.org/v1/gonum/floats"
)

// framesPerSecond sets the wall time unit of the adaptive step factor.
const framesPerSecond = 60

// StepStats describes one completed step.
type StepStats struct {
	Step    int
	Factor  float64 // time step multiplier used by the step
	Alive   int
	Escaped int
	Nodes   int
	Mass    float64 // kg still inside the cube
	Elapsed time.Duration
}

// World owns the body collection and advances it one step at a time.
// The live range is a prefix of the collection; dead bodies are kept after it.
type World struct {
	cfg        *Config
	logger     golog.Logger
	runID      uuid.UUID
	integrator nbody.Integrator

	bodies []nbody.Body
	live   []nbody.Body
	cube   geometry.Cube
	root   *nbody.Node

	builder    *nbody.Builder
	evaluators []*nbody.Evaluator
	pool       *scheduler.Pool
	snapshots  SnapshotWriter

	step     int
	factor   float64
	lastStep time.Time
	now      func() time.Time
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger golog.Logger) Option {
	return func(w *World) { w.logger = logger }
}

// WithClock replaces time.Now for the adaptive step factor.
func WithClock(now func() time.Time) Option {
	return func(w *World) { w.now = now }
}

// WithSnapshotWriter replaces the writer selected by the config.
func WithSnapshotWriter(s SnapshotWriter) Option {
	return func(w *World) { w.snapshots = s }
}

// WithBodies replaces the generated galaxy. Bodies are used as given.
func WithBodies(bodies []nbody.Body) Option {
	return func(w *World) { w.bodies = bodies }
}

// NewWorld validates cfg, creates the galaxy and starts the worker pool.
// Close must be called to release the workers.
func NewWorld(ctx context.Context, cfg *Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	area := cfg.AreaMeters()
	w := &World{
		cfg:        cfg,
		logger:     golog.DiscardLogger,
		runID:      uuid.New(),
		integrator: cfg.Integrator(),
		cube:       geometry.NewCube(geometry.Zero, 3*area),
		builder:    nbody.NewBuilder(),
		factor:     1,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.bodies == nil {
		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d))
		w.bodies = NewGalaxy(cfg, rng)
	}
	w.live = w.bodies
	if w.snapshots == nil {
		s, err := NewSnapshotWriter(cfg.SnapshotFormat, cfg.OutputDir, w.runID)
		if err != nil {
			return nil, err
		}
		w.snapshots = s
	}

	w.pool = scheduler.NewPool(ctx, cfg.Workers)
	w.evaluators = make([]*nbody.Evaluator, w.pool.Workers())
	for i := range w.evaluators {
		w.evaluators[i] = nbody.NewEvaluator(cfg.Precision, cfg.MaxAcceleration)
	}
	w.lastStep = w.now()

	w.logger.Infof("galaxy %s: %d bodies, %d workers, %s integration, precision %g",
		w.runID, len(w.bodies), w.pool.Workers(), w.integrator, cfg.Precision)
	return w, nil
}

// RunID identifies this run in snapshots and logs.
func (w *World) RunID() uuid.UUID { return w.runID }

// Cube returns the bounding cube; bodies leaving it are dropped.
func (w *World) Cube() geometry.Cube { return w.cube }

// StepIndex returns the number of completed steps.
func (w *World) StepIndex() int { return w.step }

// Factor returns the time step multiplier the next step will use.
func (w *World) Factor() float64 { return w.factor }

// Bodies returns the whole collection, live bodies first.
func (w *World) Bodies() []nbody.Body { return w.bodies }

// Live returns the bodies still inside the cube.
func (w *World) Live() []nbody.Body { return w.live }

// Root returns the tree built by the last step, nil before the first one.
func (w *World) Root() *nbody.Node { return w.root }

// TotalMass returns the mass of the live bodies.
func (w *World) TotalMass() float64 {
	masses := make([]float64, len(w.live))
	for i := range w.live {
		masses[i] = w.live[i].Mass
	}
	return floats.SumCompensated(masses)
}

// Step builds the tree over the live bodies, moves every live body on the worker pool,
// persists the whole collection and drops the bodies that left the bounding cube.
func (w *World) Step() (StepStats, error) {
	start := w.now()
	stats := StepStats{Step: w.step, Factor: w.factor}

	live := w.live
	root := w.builder.Build(live, w.cube.Center, w.cube.Edge)
	w.root = root
	stats.Nodes = w.builder.Nodes()

	dt := w.cfg.StepSeconds() * w.factor
	err := w.pool.Run(len(live), func(worker int, r scheduler.Range) error {
		ev := w.evaluators[worker]
		for i := r.Start; i < r.End; i++ {
			b := &live[i]
			ev.UpdateAccelerationAndDensity(b, root)
			if !w.integrator.SelfIntegrating() {
				b.UpdateVelocity(dt)
			}
			b.UpdatePosition(dt, w.integrator)
			if !w.cube.Contains(b.Position) {
				b.Alive = false
			}
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("step %d: %w", w.step, err)
	}

	if err := w.snapshots.WriteSnapshot(w.step, w.bodies); err != nil {
		return stats, fmt.Errorf("step %d: %w", w.step, err)
	}

	w.live = nbody.CompactAlive(live)
	stats.Alive = len(w.live)
	stats.Escaped = len(live) - len(w.live)
	stats.Mass = w.TotalMass()
	w.step++

	now := w.now()
	if elapsed := now.Sub(w.lastStep); w.cfg.AdaptiveStep && elapsed > 0 {
		w.factor = elapsed.Seconds() * framesPerSecond
	}
	w.lastStep = now
	stats.Elapsed = now.Sub(start)

	w.logger.Debugf("step %d: %d alive, %d escaped, %d nodes, %.4g solar masses, factor %.3f, %s",
		stats.Step, stats.Alive, stats.Escaped, stats.Nodes, stats.Mass/nbody.SolarMass, stats.Factor, stats.Elapsed)
	return stats, nil
}

// Close stops the worker pool. The world cannot step afterwards.
func (w *World) Close() error {
	return w.pool.Stop()
}
