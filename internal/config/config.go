// Package config loads the chapter configuration: embedded YAML defaults,
// an optional override file validated against a JSON schema, and
// CREEPSTACK_* environment variables.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/comalice/creepstack/chapter"
	"github.com/comalice/creepstack/orders"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
)

var ErrInvalidConfig = errors.New("invalid config")

//go:embed default.yaml
var defaultYAML []byte

//go:embed schema.json
var schemaJSON string

// Point is an [x, y] pair.
type Point [2]float64

func (p Point) Vec() region.Vec2 {
	return region.Vec2{X: p[0], Y: p[1]}
}

type Camp struct {
	Name string `yaml:"name"`
	Min  Point  `yaml:"min"`
	Max  Point  `yaml:"max"`
	Size int    `yaml:"size"`
}

type Config struct {
	Locale     string  `yaml:"locale"`
	ListenAddr string  `yaml:"listen_addr"`
	TickRate   int     `yaml:"tick_rate"` // Hz
	Seed       int64   `yaml:"seed"`
	Debounce   float64 `yaml:"debounce"`
	LeashDelay float64 `yaml:"leash_delay"`
	// StartTime is the real game clock when the chapter begins.
	StartTime     float64 `yaml:"start_time"`
	NaturalSpawns bool    `yaml:"natural_spawns"`

	PracticeTries     int `yaml:"practice_tries"`
	ChampionshipTries int `yaml:"championship_tries"`

	Hero     Point             `yaml:"hero"`
	Camp     Camp              `yaml:"camp"`
	Schedule stacking.Schedule `yaml:"schedule"`
	Items    orders.Items      `yaml:"items"`
}

// Env holds the environment overrides. Zero values leave the file config
// untouched.
type Env struct {
	ConfigPath string `env:"CREEPSTACK_CONFIG"`
	Locale     string `env:"CREEPSTACK_LOCALE"`
	ListenAddr string `env:"CREEPSTACK_LISTEN_ADDR"`
	TickRate   int    `env:"CREEPSTACK_TICK_RATE"`
	Tries      int    `env:"CREEPSTACK_TRIES"`
	ReportDir  string `env:"CREEPSTACK_REPORT_DIR"`
}

var schema = jsonschema.MustCompileString("schema.json", schemaJSON)

// Default returns the embedded configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Parse decodes data over the defaults. Keys missing from data keep their
// default value; lists such as schedule marks are replaced as a whole.
func Parse(data []byte) (Config, error) {
	if err := validateSchema(data); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseEnv loads overrides from environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// FromEnv loads the file named by CREEPSTACK_CONFIG, or the defaults, and
// applies the remaining environment overrides.
func FromEnv() (Config, error) {
	e, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if e.ConfigPath != "" {
		if cfg, err = Load(e.ConfigPath); err != nil {
			return Config{}, err
		}
	}
	cfg.Apply(e)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Apply copies the set fields of e onto c.
func (c *Config) Apply(e Env) {
	if e.Locale != "" {
		c.Locale = e.Locale
	}
	if e.ListenAddr != "" {
		c.ListenAddr = e.ListenAddr
	}
	if e.TickRate > 0 {
		c.TickRate = e.TickRate
	}
	if e.Tries > 0 {
		c.ChampionshipTries = e.Tries
	}
}

// Validate checks the semantic rules the schema cannot express.
func (c Config) Validate() error {
	if _, err := c.Region(); err != nil {
		return fmt.Errorf("%w: camp: %w", ErrInvalidConfig, err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalidConfig)
	case c.PracticeTries <= 0 || c.ChampionshipTries <= 0:
		return fmt.Errorf("%w: tries must be positive", ErrInvalidConfig)
	case c.Locale == "":
		return fmt.Errorf("%w: locale is required", ErrInvalidConfig)
	case c.Items.First == "" || c.Items.Second == "" || c.Items.First == c.Items.Second:
		return fmt.Errorf("%w: two distinct neutral items are required", ErrInvalidConfig)
	}
	return nil
}

// Region returns the camp box.
func (c Config) Region() (region.Region, error) {
	return region.New(c.Camp.Min.Vec(), c.Camp.Max.Vec())
}

// Chapter converts the file settings into a chapter configuration.
func (c Config) Chapter() (chapter.Config, error) {
	r, err := c.Region()
	if err != nil {
		return chapter.Config{}, fmt.Errorf("%w: camp: %w", ErrInvalidConfig, err)
	}
	return chapter.Config{
		Camp:              c.Camp.Name,
		Region:            r,
		CampSize:          c.Camp.Size,
		Debounce:          c.Debounce,
		PracticeTries:     c.PracticeTries,
		ChampionshipTries: c.ChampionshipTries,
		Schedule:          c.Schedule,
		Items:             c.Items,
		Seed:              c.Seed,
		TickRate:          c.TickDuration(),
	}, nil
}

// TickDuration converts the tick rate to a step duration.
func (c Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// validateSchema checks raw YAML against the embedded schema. The decoded
// document goes through JSON so the validator sees JSON value types.
func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("yaml unmarshal: %w", err)
	}
	if doc == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
