package geometry

// Cube is an axis-aligned cube given by its center and edge length.
type Cube struct {
	Center Vec3
	Edge   float64
}

// NewCube creates a Cube.
func NewCube(center Vec3, edge float64) Cube {
	return Cube{Center: center, Edge: edge}
}

// Half returns half the edge length.
func (c Cube) Half() float64 {
	return c.Edge * 0.5
}

// Contains reports whether p lies strictly inside the cube on all three axes.
// A point exactly on a face is outside.
func (c Cube) Contains(p Vec3) bool {
	h := c.Half()
	for i := 0; i < 3; i++ {
		if !(c.Center[i]-h < p[i] && p[i] < c.Center[i]+h) {
			return false
		}
	}
	return true
}

// Octant returns the sub-cube with index oct (0..7).
// Bit 2 selects the high X half, bit 1 the high Y half, bit 0 the high Z half,
// so the order matches an x-then-y-then-z partition with low halves first.
func (c Cube) Octant(oct int) Cube {
	q := c.Edge / 4
	offset := Vec3{-q, -q, -q}
	if oct&4 != 0 {
		offset[0] = q
	}
	if oct&2 != 0 {
		offset[1] = q
	}
	if oct&1 != 0 {
		offset[2] = q
	}
	return Cube{Center: c.Center.Add(offset), Edge: c.Edge / 2}
}

// OctantOf returns the index of the octant p falls in, using "<" on each axis:
// a coordinate equal to the center goes to the high half.
func (c Cube) OctantOf(p Vec3) int {
	oct := 0
	if !(p[0] < c.Center[0]) {
		oct |= 4
	}
	if !(p[1] < c.Center[1]) {
		oct |= 2
	}
	if !(p[2] < c.Center[2]) {
		oct |= 1
	}
	return oct
}
