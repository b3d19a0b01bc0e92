package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultStepTimeout bounds how long the runner waits for a single step.
const DefaultStepTimeout = 10 * time.Minute

// StepReport is the runner side view of the GalaxyActor answer.
type StepReport struct {
	Step    int
	Alive   int
	Escaped int
	Factor  float64
	Elapsed time.Duration
}

// Runner hosts a GalaxyActor in its own actor system and drives it step by step.
type Runner struct {
	System      actor.ActorSystem
	StepTimeout time.Duration

	cfg    *Config
	world  *World
	pid    *actor.PID
	logger golog.Logger
}

// NewRunner creates the world for cfg and spawns its actor.
func NewRunner(ctx context.Context, cfg *Config, logger golog.Logger, opts ...Option) (*Runner, error) {
	world, err := NewWorld(ctx, cfg, append([]Option{WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}

	system, err := actor.NewActorSystem("GalaxySimulation",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		_ = world.Close()
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		_ = world.Close()
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	pid, err := system.Spawn(ctx, "galaxy", NewGalaxyActor(world))
	if err != nil {
		_ = system.Stop(ctx)
		_ = world.Close()
		return nil, fmt.Errorf("failed to spawn galaxy actor: %w", err)
	}

	return &Runner{
		System:      system,
		StepTimeout: DefaultStepTimeout,
		cfg:         cfg,
		world:       world,
		pid:         pid,
		logger:      logger,
	}, nil
}

// World returns the simulated world. It must not be touched while a step is running.
func (r *Runner) World() *World {
	return r.world
}

// Advance asks the galaxy actor for steps more steps.
func (r *Runner) Advance(ctx context.Context, steps uint64) (StepReport, error) {
	resp, err := r.System.NoSender().Ask(ctx, r.pid, wrapperspb.UInt64(steps), r.StepTimeout)
	if err != nil {
		return StepReport{}, fmt.Errorf("galaxy actor did not answer: %w", err)
	}
	reply, ok := resp.(*structpb.Struct)
	if !ok {
		return StepReport{}, fmt.Errorf("unexpected galaxy actor answer %T", resp)
	}

	f := reply.GetFields()
	report := StepReport{
		Step:    int(f["step"].GetNumberValue()),
		Alive:   int(f["alive"].GetNumberValue()),
		Escaped: int(f["escaped"].GetNumberValue()),
		Factor:  f["factor"].GetNumberValue(),
		Elapsed: time.Duration(f["elapsedMs"].GetNumberValue()) * time.Millisecond,
	}
	if msg, failed := f["error"]; failed {
		return report, errors.New(msg.GetStringValue())
	}
	return report, nil
}

// Run steps until MaxIterations steps are done (forever when 0), every body escaped or
// ctx is canceled. A canceled context is not an error.
func (r *Runner) Run(ctx context.Context) error {
	lastLog := time.Now()
	report := StepReport{Step: r.world.StepIndex(), Alive: len(r.world.Live())}
	for r.cfg.MaxIterations == 0 || report.Step < r.cfg.MaxIterations {
		if ctx.Err() != nil {
			r.logger.Infof("galaxy %s: interrupted after %d steps", r.world.RunID(), report.Step)
			return nil
		}
		if report.Alive == 0 {
			r.logger.Infof("galaxy %s: every body escaped after %d steps", r.world.RunID(), report.Step)
			return nil
		}

		var err error
		report, err = r.Advance(ctx, 1)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if time.Since(lastLog) >= time.Second {
			r.logger.Infof("📊 step %d | alive %d | escaped %d | factor %.2f | %s/step",
				report.Step, report.Alive, report.Escaped, report.Factor, report.Elapsed)
			lastLog = time.Now()
		}
	}
	r.logger.Infof("galaxy %s: done, %d steps, %d bodies alive", r.world.RunID(), report.Step, report.Alive)
	return nil
}

// Stop shuts the actor system down, which closes the world.
func (r *Runner) Stop(ctx context.Context) error {
	return r.System.Stop(ctx)
}
