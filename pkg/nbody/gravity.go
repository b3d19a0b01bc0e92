package nbody

import (
	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/geometry"
)

// pointMass returns the acceleration exerted on a body at target by a mass at source,
// d being their distance.
func pointMass(target, source geometry.Vec3, mass, d float64) geometry.Vec3 {
	return target.Sub(source).Mul(-G * mass / (d * d * d))
}

// visit applies one node to b: it returns the node's contribution and whether the walk
// must descend into its children instead.
func visit(precision float64, b *Body, n *Node) (geometry.Vec3, bool) {
	if n.Count == 0 {
		return geometry.Zero, false
	}
	d := geometry.Distance(b.Position, n.MassCenter)

	switch p := n.Payload.(type) {
	case Leaf:
		if d == 0 {
			return geometry.Zero, false
		}
		b.Density += 1 / (d * LightYear)
		return pointMass(b.Position, n.MassCenter, n.Mass, d), false
	case Cluster:
		if d == 0 {
			return geometry.Zero, false
		}
		b.Density += float64(len(p.Indices)) / (d * LightYear)
		return pointMass(b.Position, n.MassCenter, n.Mass, d), false
	}

	// d == 0 gives an infinite opening angle, so the node is always opened
	if n.Cube.Edge/d < precision {
		b.Density += float64(n.Count) / (d / LightYear)
		return pointMass(b.Position, n.MassCenter, n.Mass, d), false
	}
	return geometry.Zero, true
}

// ForceAndDensity returns the acceleration exerted on b by the bodies under n and adds
// their contribution to b.Density. A node whose size seen from b is smaller than
// precision (edge/distance < precision) acts as a single mass at its center of mass.
// precision 0 sums every body exactly.
func ForceAndDensity(precision float64, b *Body, n *Node) geometry.Vec3 {
	acc, open := visit(precision, b, n)
	if !open {
		return acc
	}
	for _, c := range n.Children() {
		if c.Count > 0 {
			acc = acc.Add(ForceAndDensity(precision, b, c))
		}
	}
	return acc
}

// Evaluator is the iterative equivalent of ForceAndDensity. It keeps its own stack,
// so a single Evaluator must not be shared between goroutines.
type Evaluator struct {
	Precision       float64
	MaxAcceleration float64

	// Visited counts the nodes examined by the last call to Acceleration.
	Visited int

	stack []*Node
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(precision, maxAcceleration float64) *Evaluator {
	return &Evaluator{
		Precision:       precision,
		MaxAcceleration: maxAcceleration,
		stack:           make([]*Node, 0, 64),
	}
}

// Acceleration walks the tree rooted at root for b, depth first in octant order,
// and returns the summed acceleration; density contributions are added to b.Density.
func (e *Evaluator) Acceleration(b *Body, root *Node) geometry.Vec3 {
	var acc geometry.Vec3
	e.Visited = 0
	e.stack = append(e.stack[:0], root)
	for len(e.stack) > 0 {
		n := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]
		e.Visited++

		contrib, open := visit(e.Precision, b, n)
		if !open {
			acc = acc.Add(contrib)
			continue
		}
		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			if children[i].Count > 0 {
				e.stack = append(e.stack, children[i])
			}
		}
	}
	return acc
}

// UpdateAccelerationAndDensity resets b.Density, recomputes b.Acceleration against the
// tree and clamps it to e.MaxAcceleration when that is positive.
func (e *Evaluator) UpdateAccelerationAndDensity(b *Body, root *Node) {
	b.Density = 0
	b.Acceleration = e.Acceleration(b, root)
	if e.MaxAcceleration > 0 {
		b.ClampAcceleration(e.MaxAcceleration)
	}
}
