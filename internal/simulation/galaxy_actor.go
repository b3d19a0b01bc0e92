package simulation

import (
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GalaxyActor owns a World and advances it on request.
//
// A *wrapperspb.UInt64Value asks for that many steps; the actor answers with a
// *structpb.Struct holding "step", "alive", "escaped", "factor", "elapsedMs" and,
// when a step failed, "error". The world is closed when the actor stops.
type GalaxyActor struct {
	world *World
	last  StepStats
}

var _ actor.Actor = (*GalaxyActor)(nil)

// NewGalaxyActor wraps world.
func NewGalaxyActor(world *World) *GalaxyActor {
	return &GalaxyActor{world: world}
}

func (g *GalaxyActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("galaxy %s: %d bodies ready", g.world.RunID(), len(g.world.Bodies()))
	return nil
}

func (g *GalaxyActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("galaxy actor started, bounding cube edge %g m", g.world.Cube().Edge)

	case *wrapperspb.UInt64Value:
		ctx.Response(g.advance(msg.GetValue()))

	default:
		ctx.Unhandled()
	}
}

func (g *GalaxyActor) advance(steps uint64) *structpb.Struct {
	var err error
	for i := uint64(0); i < steps; i++ {
		if len(g.world.Live()) == 0 {
			break
		}
		g.last, err = g.world.Step()
		if err != nil {
			break
		}
	}

	reply := &structpb.Struct{Fields: map[string]*structpb.Value{
		"step":      structpb.NewNumberValue(float64(g.world.StepIndex())),
		"alive":     structpb.NewNumberValue(float64(len(g.world.Live()))),
		"escaped":   structpb.NewNumberValue(float64(g.last.Escaped)),
		"factor":    structpb.NewNumberValue(g.last.Factor),
		"elapsedMs": structpb.NewNumberValue(float64(g.last.Elapsed.Milliseconds())),
	}}
	if err != nil {
		reply.Fields["error"] = structpb.NewStringValue(err.Error())
	}
	return reply
}

func (g *GalaxyActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("galaxy %s: stopping after %d steps", g.world.RunID(), g.world.StepIndex())
	return g.world.Close()
}
