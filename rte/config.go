package rte

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
	"github.com/golobby/config/v3"
	"github.com/robfig/cron/v3"

	"github.com/GoCodeAlone/mca/bfrops"
	"github.com/GoCodeAlone/mca/feeders"
	"github.com/GoCodeAlone/mca/progress"
)

const tagDefault = "default"

// Config holds the runtime parameters. Environment names carry the
// PMIX_MCA_ prefix, so Bfrops.Selection is read from PMIX_MCA_BFROPS.
type Config struct {
	ComponentPath  string `yaml:"component_path" toml:"component_path" env:"MCA_BASE_COMPONENT_PATH" desc:"Directories searched for plugin files, separated by the OS path-list separator"`
	ShowLoadErrors bool   `yaml:"show_load_errors" toml:"show_load_errors" env:"MCA_BASE_COMPONENT_SHOW_LOAD_ERRORS" default:"true" desc:"Report plugin load failures as warnings"`
	AllowDynamic   bool   `yaml:"allow_dynamic" toml:"allow_dynamic" env:"MCA_BASE_COMPONENT_ALLOW_DYNAMIC" default:"true" desc:"Load components from the component path"`

	Bfrops   BfropsConfig   `yaml:"bfrops" toml:"bfrops"`
	Psec     PsecConfig     `yaml:"psec" toml:"psec"`
	Progress ProgressConfig `yaml:"progress" toml:"progress"`
}

// BfropsConfig holds the buffer-operations parameters.
type BfropsConfig struct {
	Selection     string `yaml:"selection" toml:"selection" env:"BFROPS" desc:"Components to use, or ^components to exclude"`
	Verbose       int    `yaml:"verbose" toml:"verbose" env:"BFROPS_BASE_VERBOSE" desc:"Framework verbosity"`
	InitialSize   int    `yaml:"initial_size" toml:"initial_size" env:"BFROPS_BASE_INITIAL_SIZE" default:"128" desc:"Initial buffer capacity in bytes"`
	ThresholdSize int    `yaml:"threshold_size" toml:"threshold_size" env:"BFROPS_BASE_THRESHOLD_SIZE" default:"4096" desc:"Capacity above which buffers grow linearly"`
	DefaultType   string `yaml:"default_type" toml:"default_type" env:"BFROPS_BASE_DEFAULT_TYPE" default:"non-desc" desc:"Buffer type of new buffers: non-desc or fully-desc"`
}

// PsecConfig holds the security parameters.
type PsecConfig struct {
	Selection string `yaml:"selection" toml:"selection" env:"PSEC" desc:"Security mechanisms to use, or ^mechanisms to exclude"`
	Verbose   int    `yaml:"verbose" toml:"verbose" env:"PSEC_BASE_VERBOSE" desc:"Framework verbosity"`
}

// ProgressConfig holds the progress thread parameters.
type ProgressConfig struct {
	Thread    string        `yaml:"thread" toml:"thread" env:"PROGRESS_THREAD" default:"shared" desc:"Name of the runtime progress thread"`
	Keepalive string        `yaml:"keepalive" toml:"keepalive" env:"PROGRESS_KEEPALIVE" default:"@every 1s" desc:"Cron schedule of the keepalive event; empty disables it"`
	StopGrace time.Duration `yaml:"stop_grace" toml:"stop_grace" env:"PROGRESS_STOP_GRACE" default:"5s" desc:"How long finalize waits for progress threads"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := ProcessConfigDefaults(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig applies the defaults, then each feeder in order, then
// validates the result.
func LoadConfig(sources ...feeders.Feeder) (*Config, error) {
	cfg := &Config{}
	if err := ProcessConfigDefaults(cfg); err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		c := config.New()
		for _, f := range sources {
			c.AddFeeder(f)
		}
		if err := c.AddStruct(cfg).Feed(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigFeed, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile loads the parameters from a YAML or TOML file, picked by
// extension, and then from PMIX_MCA_ environment variables. With a non-empty
// section the parameters are read from that top-level key of the file.
func LoadConfigFile(path, section string) (*Config, error) {
	var src interface {
		feeders.Feeder
		feeders.KeyFeeder
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		src = feeders.NewYamlFeeder(path)
	case ".toml":
		src = feeders.NewTomlFeeder(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrConfigFormat, path)
	}

	var file feeders.Feeder = src
	if section != "" {
		file = feeders.Section(src, section)
	}
	return LoadConfig(file, feeders.NewMCAEnvFeeder())
}

// Validate checks the parameters.
func (c *Config) Validate() error {
	if c.Bfrops.InitialSize <= 0 {
		return fmt.Errorf("%w: bfrops initial size %d", ErrConfigInvalid, c.Bfrops.InitialSize)
	}
	if c.Bfrops.ThresholdSize < c.Bfrops.InitialSize {
		return fmt.Errorf("%w: bfrops threshold size %d is below the initial size %d",
			ErrConfigInvalid, c.Bfrops.ThresholdSize, c.Bfrops.InitialSize)
	}
	if _, err := bfrops.ParseBufferType(c.Bfrops.DefaultType); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if c.Progress.Keepalive != "" {
		if _, err := cron.ParseStandard(c.Progress.Keepalive); err != nil {
			return fmt.Errorf("%w: progress keepalive %q: %w", ErrConfigInvalid, c.Progress.Keepalive, err)
		}
	}
	if c.Progress.StopGrace < 0 {
		return fmt.Errorf("%w: negative progress stop grace", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) bfropsConfig() bfrops.Config {
	typ, _ := bfrops.ParseBufferType(c.Bfrops.DefaultType)
	return bfrops.Config{
		Selection:     c.Bfrops.Selection,
		Verbose:       c.Bfrops.Verbose,
		InitialSize:   c.Bfrops.InitialSize,
		ThresholdSize: c.Bfrops.ThresholdSize,
		DefaultType:   typ,
	}
}

func (c *Config) progressThread() string {
	if c.Progress.Thread == "" {
		return progress.SharedName
	}
	return c.Progress.Thread
}

// ProcessConfigDefaults fills zero-valued fields of cfg from their default
// tags. Nested structs are processed recursively.
func ProcessConfigDefaults(cfg any) error {
	if cfg == nil {
		return ErrConfigNil
	}
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: got %T", ErrConfigNotStructPointer, cfg)
	}
	return processStructDefaults(v.Elem())
}

func processStructDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := processStructDefaults(field); err != nil {
				return err
			}
			continue
		}

		defaultVal, hasDefault := fieldType.Tag.Lookup(tagDefault)
		if !hasDefault || !field.IsZero() {
			continue
		}
		if err := setDefaultValue(field, defaultVal); err != nil {
			return fmt.Errorf("failed to set default value for %s: %w", fieldType.Name, err)
		}
	}
	return nil
}

func setDefaultValue(field reflect.Value, defaultVal string) error {
	if field.Type() == reflect.TypeFor[time.Duration]() {
		d, err := time.ParseDuration(defaultVal)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}
	converted, err := cast.FromType(defaultVal, field.Type())
	if err != nil {
		return err
	}
	field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	return nil
}
