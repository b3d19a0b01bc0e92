package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/nbody"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidConfig wraps every schema violation.
var ErrInvalidConfig = errors.New("invalid config")

// Snapshot formats.
const (
	FormatText    = "text"
	FormatMsgpack = "msgpack"
	FormatNone    = "none"
)

//go:embed config.schema.json
var configSchema string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("config.schema.json", configSchema)
})

type Config struct {
	// Galaxy
	StarsNumber     int     `json:"starsNumber"`
	Area            float64 `json:"area"`            // light-years
	GalaxyThickness float64 `json:"galaxyThickness"` // fraction of area
	InitialSpeed    float64 `json:"initialSpeed"`    // m/s
	BlackHole       bool    `json:"blackHole"`
	BlackHoleMass   float64 `json:"blackHoleMass"` // solar masses

	// Integration
	Step              float64 `json:"step"`      // years
	Precision         float64 `json:"precision"` // Barnes-Hut opening angle
	VerletIntegration bool    `json:"verletIntegration"`
	MaxIterations     int     `json:"maxIterations"` // 0 runs until every star escaped
	Workers           int     `json:"workers"`       // 0 uses every CPU
	MaxAcceleration   float64 `json:"maxAcceleration"`
	AdaptiveStep      bool    `json:"adaptiveStep"`
	Seed              uint64  `json:"seed"`

	// Output
	OutputDir      string `json:"outputDir"`
	SnapshotFormat string `json:"snapshotFormat"`
}

func DefaultConfig() *Config {
	return &Config{
		StarsNumber:       50000,
		Area:              1000,
		GalaxyThickness:   0.05,
		InitialSpeed:      10000,
		Step:              100000,
		Precision:         1,
		VerletIntegration: true,
		MaxIterations:     1000,
		Workers:           4,
		MaxAcceleration:   nbody.DefaultMaxAcceleration,
		AdaptiveStep:      true,
		Seed:              42,
		OutputDir:         ".",
		SnapshotFormat:    FormatText,
	}
}

// Integrator returns the integration scheme selected by the config.
func (c *Config) Integrator() nbody.Integrator {
	if c.VerletIntegration {
		return nbody.Verlet
	}
	return nbody.Euler
}

// AreaMeters returns the area in meters.
func (c *Config) AreaMeters() float64 {
	return c.Area * nbody.LightYear
}

// StepSeconds returns the base time step in seconds.
func (c *Config) StepSeconds() float64 {
	return c.Step * nbody.Year
}

// Validate checks the config against the schema, so that values overridden after
// LoadConfig obey the same rules.
func (c *Config) Validate() error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to decode config json: %w", err)
	}
	return validate(v)
}

func validate(v interface{}) error {
	sch, err := compileSchema()
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
// Fields missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := validate(v); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
