package nbody

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/geometry"
)

// Integrator selects how a Body advances its position.
type Integrator int

const (
	// Euler advances velocity from acceleration, then position from velocity.
	Euler Integrator = iota
	// Verlet advances position from the current and previous positions plus acceleration.
	// Velocity is not used (nor updated) by the scheme.
	Verlet
)

func (i Integrator) String() string {
	switch i {
	case Euler:
		return "euler"
	case Verlet:
		return "verlet"
	default:
		return fmt.Sprintf("Integrator(%d)", int(i))
	}
}

// SelfIntegrating reports whether the scheme updates position without an explicit velocity step.
func (i Integrator) SelfIntegrating() bool {
	return i == Verlet
}

// Body is a point mass (a star).
type Body struct {
	PreviousPosition geometry.Vec3
	Position         geometry.Vec3
	Velocity         geometry.Vec3
	Acceleration     geometry.Vec3

	Mass    float64 // kg
	Density float64 // recomputed by every force pass

	Index     int // stable, assigned at creation
	NodeIndex int // leaf that held the body in the last tree build
	Alive     bool
}

// UpdatePosition advances the position by step seconds.
func (b *Body) UpdatePosition(step float64, integrator Integrator) {
	if integrator == Verlet {
		current := b.Position
		b.Position = b.Position.Mul(2).Sub(b.PreviousPosition).Add(b.Acceleration.Mul(step * step))
		b.PreviousPosition = current
		return
	}
	b.Position = b.Position.Add(b.Velocity.Mul(step))
}

// UpdateVelocity advances the velocity by step seconds.
func (b *Body) UpdateVelocity(step float64) {
	b.Velocity = b.Velocity.Add(b.Acceleration.Mul(step))
}

// ClampAcceleration rescales the acceleration to maxAcceleration when it is larger,
// keeping its direction.
func (b *Body) ClampAcceleration(maxAcceleration float64) {
	b.Acceleration = geometry.ClampLen(b.Acceleration, maxAcceleration)
}

// String renders one human readable line: position, velocity, acceleration, mass, density.
func (b *Body) String() string {
	return fmt.Sprintf("%s %s %s %g %g",
		geometry.Format(b.Position),
		geometry.Format(b.Velocity),
		geometry.Format(b.Acceleration),
		b.Mass,
		b.Density)
}

// Partition reorders bodies in place so that those for which keep returns true come
// first, and returns how many there are. Kept bodies retain their relative order.
func Partition(bodies []Body, keep func(*Body) bool) int {
	k := 0
	for i := range bodies {
		if keep(&bodies[i]) {
			if i != k {
				bodies[i], bodies[k] = bodies[k], bodies[i]
			}
			k++
		}
	}
	return k
}

// CompactAlive moves the alive bodies to the front of the live range and returns the
// shrunk live range.
func CompactAlive(live []Body) []Body {
	n := Partition(live, func(b *Body) bool { return b.Alive })
	return live[:n]
}
