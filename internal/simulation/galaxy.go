package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/nbody"
)

// MassClass is a slice of the stellar population: Fraction of the stars weigh
// between Min and Max solar masses.
type MassClass struct {
	Fraction float64
	Min, Max float64
}

// MassClasses is the initial mass function of the galaxy, lightest first.
var MassClasses = []MassClass{
	{Fraction: 0.764, Min: 0.08, Max: 0.45},
	{Fraction: 0.121, Min: 0.45, Max: 0.8},
	{Fraction: 0.076, Min: 0.8, Max: 1.04},
	{Fraction: 0.030, Min: 1.04, Max: 1.4},
	{Fraction: 0.006, Min: 1.4, Max: 2.1},
	{Fraction: 0.0013, Min: 2.1, Max: 16},
}

// Count returns how many of n stars belong to the class: floor(n*Fraction)+1.
func (m MassClass) Count(n int) int {
	return int(math.Floor(float64(n)*m.Fraction)) + 1
}

// GalaxySize returns the number of bodies NewGalaxy creates for cfg.
func GalaxySize(cfg *Config) int {
	total := 0
	for _, class := range MassClasses {
		total += class.Count(cfg.StarsNumber)
	}
	if cfg.BlackHole {
		total++
	}
	return total
}

// NewGalaxy creates a rotating disc of stars centered at the origin, plus an optional
// black hole at rest in its center. Body i has Index i.
func NewGalaxy(cfg *Config, rng *rand.Rand) []nbody.Body {
	area := cfg.AreaMeters()
	step := cfg.StepSeconds()
	bodies := make([]nbody.Body, 0, GalaxySize(cfg))

	for _, class := range MassClasses {
		for range class.Count(cfg.StarsNumber) {
			b := newStar(rng, area, cfg.GalaxyThickness, cfg.InitialSpeed, step)
			b.Mass = (class.Min + rng.Float64()*(class.Max-class.Min)) * nbody.SolarMass
			b.Index = len(bodies)
			bodies = append(bodies, b)
		}
	}

	if cfg.BlackHole {
		bodies = append(bodies, nbody.Body{
			Mass:  cfg.BlackHoleMass * nbody.SolarMass,
			Index: len(bodies),
			Alive: true,
		})
	}
	return bodies
}

func newStar(rng *rand.Rand, area, thickness, speed, step float64) nbody.Body {
	position := geometry.NewSpherical((math.Sqrt(rng.Float64())-0.5)*area, rng.Float64()*2*math.Pi, math.Pi/2)
	position[2] = (rng.Float64() - 0.5) * area * thickness

	velocity := geometry.NewSpherical(speed, geometry.Phi(position)+math.Pi/2, math.Pi/2)
	return nbody.Body{
		PreviousPosition: position.Sub(velocity.Mul(step)),
		Position:         position,
		Velocity:         velocity,
		Alive:            true,
	}
}
