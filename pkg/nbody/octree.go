package nbody

import (
	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/geometry"
)

// DefaultMaxDepth stops subdivision of bodies that float64 can no longer separate.
const DefaultMaxDepth = 128

// Payload is exactly one of Empty, Leaf, Cluster or *Branch.
type Payload interface {
	isPayload()
}

// Empty is the payload of a node without bodies.
type Empty struct{}

// Leaf is the payload of a node holding exactly one body, referenced by its stable index.
type Leaf struct {
	Index int
}

// Cluster holds bodies that share a position (or could not be separated before
// the maximum depth); it behaves like a Leaf carrying their combined mass.
type Cluster struct {
	Indices []int
}

// Branch owns the 8 octants of a node holding more than one body.
// Children are ordered x-major: bit 2 high X, bit 1 high Y, bit 0 high Z.
type Branch struct {
	Children [8]*Node
}

func (Empty) isPayload()   {}
func (Leaf) isPayload()    {}
func (Cluster) isPayload() {}
func (*Branch) isPayload() {}

// Node is a cubic region of space in the octree.
type Node struct {
	Cube       geometry.Cube
	HalfEdge   float64
	Mass       float64
	MassCenter geometry.Vec3
	Count      int
	Payload    Payload
}

// IsEmpty reports whether the node holds no body.
func (n *Node) IsEmpty() bool {
	return n.Count == 0
}

// Children returns the 8 children of a Branch node, nil otherwise.
func (n *Node) Children() []*Node {
	if br, ok := n.Payload.(*Branch); ok {
		return br.Children[:]
	}
	return nil
}

// Walk visits n and all its descendants depth first, in octant order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}

// nodeChunk is the allocation unit of the builder arena.
const nodeChunk = 1024

// Builder builds octrees and recycles their nodes from one build to the next.
// A tree returned by Build is valid until the next call to Build on the same Builder.
type Builder struct {
	MaxDepth int

	chunks [][]Node
	chunk  int
	next   int
	leaves int
}

// NewBuilder creates a Builder with DefaultMaxDepth.
func NewBuilder() *Builder {
	return &Builder{MaxDepth: DefaultMaxDepth}
}

// Build reorders bodies in place into octants and returns the root of a fresh octree
// covering the cube centered at center with the given edge. Every body's NodeIndex is
// set to the ordinal of the leaf holding it.
func (bl *Builder) Build(bodies []Body, center geometry.Vec3, edge float64) *Node {
	bl.chunk, bl.next, bl.leaves = 0, 0, 0
	if bl.MaxDepth <= 0 {
		bl.MaxDepth = DefaultMaxDepth
	}
	return bl.build(bodies, geometry.NewCube(center, edge), 0)
}

// Build is a convenience wrapper using a throwaway Builder.
func Build(bodies []Body, center geometry.Vec3, edge float64) *Node {
	return NewBuilder().Build(bodies, center, edge)
}

// Nodes returns how many nodes the last Build allocated.
func (bl *Builder) Nodes() int {
	return bl.chunk*nodeChunk + bl.next
}

func (bl *Builder) alloc() *Node {
	if bl.next == nodeChunk {
		bl.chunk++
		bl.next = 0
	}
	if bl.chunk == len(bl.chunks) {
		bl.chunks = append(bl.chunks, make([]Node, nodeChunk))
	}
	n := &bl.chunks[bl.chunk][bl.next]
	bl.next++
	return n
}

func (bl *Builder) build(bodies []Body, cube geometry.Cube, depth int) *Node {
	n := bl.alloc()
	*n = Node{Cube: cube, HalfEdge: cube.Half(), Count: len(bodies)}

	switch len(bodies) {
	case 0:
		n.Payload = Empty{}
		return n
	case 1:
		b := &bodies[0]
		b.NodeIndex = bl.leaves
		bl.leaves++
		n.Mass = b.Mass
		n.MassCenter = b.Position
		n.Payload = Leaf{Index: b.Index}
		return n
	}

	if depth >= bl.MaxDepth {
		return bl.cluster(n, bodies)
	}

	parts := splitOctants(bodies, cube.Center)
	for _, p := range parts {
		if len(p) == len(bodies) && coincident(bodies) {
			return bl.cluster(n, bodies)
		}
	}

	br := &Branch{}
	var massCenter geometry.Vec3
	for oct := range parts {
		child := bl.build(parts[oct], cube.Octant(oct), depth+1)
		br.Children[oct] = child
		if child.Count > 0 {
			n.Mass += child.Mass
			massCenter = massCenter.Add(child.MassCenter.Mul(child.Mass))
		}
	}
	// all contained bodies massless: the center of mass is undefined, keep it at zero
	if n.Mass != 0 {
		n.MassCenter = geometry.DivScalar(massCenter, n.Mass)
	}
	n.Payload = br
	return n
}

func (bl *Builder) cluster(n *Node, bodies []Body) *Node {
	c := Cluster{Indices: make([]int, len(bodies))}
	var massCenter geometry.Vec3
	for i := range bodies {
		b := &bodies[i]
		b.NodeIndex = bl.leaves
		c.Indices[i] = b.Index
		n.Mass += b.Mass
		massCenter = massCenter.Add(b.Position.Mul(b.Mass))
	}
	bl.leaves++
	if n.Mass != 0 {
		n.MassCenter = geometry.DivScalar(massCenter, n.Mass)
	} else {
		n.MassCenter = bodies[0].Position
	}
	n.Payload = c
	return n
}

// splitOctants partitions bodies in place by x, then each half by y, then each quarter
// by z, relative to pivot, and returns the 8 resulting sub-slices in octant order.
func splitOctants(bodies []Body, pivot geometry.Vec3) [8][]Body {
	var parts [8][]Body
	ix := partitionAxis(bodies, 0, pivot[0])
	i := 0
	for _, xs := range [2][]Body{bodies[:ix], bodies[ix:]} {
		iy := partitionAxis(xs, 1, pivot[1])
		for _, ys := range [2][]Body{xs[:iy], xs[iy:]} {
			iz := partitionAxis(ys, 2, pivot[2])
			parts[i] = ys[:iz]
			parts[i+1] = ys[iz:]
			i += 2
		}
	}
	return parts
}

// partitionAxis moves bodies whose coordinate on axis is < pivot to the front.
func partitionAxis(bodies []Body, axis int, pivot float64) int {
	k := 0
	for i := range bodies {
		if bodies[i].Position[axis] < pivot {
			if i != k {
				bodies[i], bodies[k] = bodies[k], bodies[i]
			}
			k++
		}
	}
	return k
}

func coincident(bodies []Body) bool {
	p := bodies[0].Position
	for i := 1; i < len(bodies); i++ {
		if bodies[i].Position != p {
			return false
		}
	}
	return true
}
