package tickwait

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Config holds the settings of a scheduler and of the [Loop] driving it,
// as read from a TOML file.
type Config struct {
	// DefaultPhase is the phase continuations are polled on unless told
	// otherwise.
	DefaultPhase Phase `toml:"default_phase"`
	// Workers is the number of background workers; zero runs background
	// work on goroutines of its own.
	Workers int `toml:"workers"`
	// LogLevel is a logrus level name.
	LogLevel string `toml:"log_level"`
	// TimeScale multiplies scaled time.
	TimeScale float64 `toml:"time_scale"`
	// FrameTime is how much the clock advances per frame.
	FrameTime Duration `toml:"frame_time"`
	// FixedTimestep is the FixedUpdate interval; zero means once per frame.
	FixedTimestep Duration `toml:"fixed_timestep"`
}

// Duration is a [time.Duration] written as a string in TOML, e.g. "16ms".
type Duration time.Duration

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns the settings used for anything a config file
// leaves out.
func DefaultConfig() Config {
	return Config{
		DefaultPhase: DefaultPhase,
		LogLevel:     "info",
		TimeScale:    1,
		FrameTime:    Duration(time.Second / 60),
	}
}

// LoadConfig reads a TOML config file on top of [DefaultConfig].
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := checkDecoded(meta, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig reads a TOML config from r on top of [DefaultConfig].
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := checkDecoded(meta, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func checkDecoded(meta toml.MetaData, cfg *Config) error {
	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Validate reports every invalid setting in c.
func (c Config) Validate() error {
	var errs []error
	if !c.DefaultPhase.valid() {
		errs = append(errs, fmt.Errorf("default_phase: invalid phase %d", uint8(c.DefaultPhase)))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers: must not be negative, got %d", c.Workers))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.TimeScale < 0 || math.IsNaN(c.TimeScale) || math.IsInf(c.TimeScale, 0) {
		errs = append(errs, fmt.Errorf("time_scale: must be a finite, non-negative number, got %v", c.TimeScale))
	}
	if c.FrameTime < 0 {
		errs = append(errs, fmt.Errorf("frame_time: must not be negative, got %v", time.Duration(c.FrameTime)))
	}
	if c.FixedTimestep < 0 {
		errs = append(errs, fmt.Errorf("fixed_timestep: must not be negative, got %v", time.Duration(c.FixedTimestep)))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// Options returns the scheduler options c implies.
func (c Config) Options() []Option {
	return []Option{WithDefaultPhase(c.DefaultPhase)}
}

// NewLoop returns a [Loop], with a fresh [ManualClock], set up as c says.
func (c Config) NewLoop() *Loop {
	clock := NewManualClock()
	clock.SetTimeScale(c.TimeScale)
	l := NewLoop(clock, time.Duration(c.FrameTime))
	l.SetFixedTimestep(time.Duration(c.FixedTimestep))
	return l
}

// Encode writes c to w as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
