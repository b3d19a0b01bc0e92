package nbody

// Physical constants, SI units.
const (
	G         = 6.674e-11 // gravitational constant (N·m²/kg²)
	LightYear = 9.461e15  // meters
	SolarMass = 1.989e30  // kilograms
	Year      = 31536000. // seconds
)

// DefaultMaxAcceleration bounds |a| (m/s²) after each force pass.
// Tune it together with the time step: large steps need a lower ceiling.
const DefaultMaxAcceleration = 5e-10
