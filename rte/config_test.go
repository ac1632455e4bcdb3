package rte

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/mca/bfrops"
	"github.com/GoCodeAlone/mca/feeders"
	"github.com/GoCodeAlone/mca/internal/testutil"
	"github.com/GoCodeAlone/mca/status"
)

func TestDefaultConfig(t *testing.T) {
	testutil.ClearMCAEnv(t)
	cfg := DefaultConfig()
	assert.True(t, cfg.ShowLoadErrors)
	assert.True(t, cfg.AllowDynamic)
	assert.Equal(t, 128, cfg.Bfrops.InitialSize)
	assert.Equal(t, 4096, cfg.Bfrops.ThresholdSize)
	assert.Equal(t, "non-desc", cfg.Bfrops.DefaultType)
	assert.Equal(t, "shared", cfg.Progress.Thread)
	assert.Equal(t, "@every 1s", cfg.Progress.Keepalive)
	assert.Equal(t, 5*time.Second, cfg.Progress.StopGrace)
	assert.Empty(t, cfg.Bfrops.Selection)
	require.NoError(t, cfg.Validate())

	bc := cfg.bfropsConfig()
	assert.Equal(t, bfrops.BufferNonDesc, bc.DefaultType)
}

func TestProcessConfigDefaults(t *testing.T) {
	type nested struct {
		Count int `default:"3"`
	}
	type sample struct {
		Name    string        `default:"bfrops"`
		Enabled bool          `default:"true"`
		Ratio   float64       `default:"0.5"`
		Size    uint32        `default:"64"`
		Wait    time.Duration `default:"2m"`
		Set     string        `default:"unused"`
		Inner   nested
		private int `default:"9"`
	}

	s := sample{Set: "kept"}
	require.NoError(t, ProcessConfigDefaults(&s))
	assert.Equal(t, "bfrops", s.Name)
	assert.True(t, s.Enabled)
	assert.InDelta(t, 0.5, s.Ratio, 1e-9)
	assert.Equal(t, uint32(64), s.Size)
	assert.Equal(t, 2*time.Minute, s.Wait)
	assert.Equal(t, "kept", s.Set)
	assert.Equal(t, 3, s.Inner.Count)
	assert.Zero(t, s.private)

	assert.ErrorIs(t, ProcessConfigDefaults(nil), ErrConfigNil)
	assert.ErrorIs(t, ProcessConfigDefaults(s), ErrConfigNotStructPointer)

	bad := struct {
		N int `default:"many"`
	}{}
	assert.Error(t, ProcessConfigDefaults(&bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero initial size", func(c *Config) { c.Bfrops.InitialSize = 0 }},
		{"threshold below initial", func(c *Config) { c.Bfrops.ThresholdSize = 64 }},
		{"unknown buffer type", func(c *Config) { c.Bfrops.DefaultType = "half-desc" }},
		{"bad keepalive", func(c *Config) { c.Progress.Keepalive = "sometimes" }},
		{"negative grace", func(c *Config) { c.Progress.StopGrace = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrConfigInvalid)
			assert.ErrorIs(t, err, status.ErrBadParam)
		})
	}

	cfg := DefaultConfig()
	cfg.Progress.Keepalive = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	testutil.ClearMCAEnv(t)
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "mca.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
show_load_errors: false
bfrops:
  selection: v21
  initial_size: 256
  default_type: fully-desc
progress:
  stop_grace: 2s
`), 0o600))
	tomlPath := filepath.Join(dir, "mca.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
[psec]
selection = "none"
verbose = 2
`), 0o600))

	t.Setenv("PMIX_MCA_BFROPS_BASE_THRESHOLD_SIZE", "8192")
	t.Setenv("PMIX_MCA_BFROPS", "v20,v21")

	cfg, err := LoadConfig(
		feeders.NewYamlFeeder(yamlPath),
		feeders.NewTomlFeeder(tomlPath),
		feeders.NewMCAEnvFeeder(),
	)
	require.NoError(t, err)

	assert.False(t, cfg.ShowLoadErrors)
	assert.True(t, cfg.AllowDynamic)
	assert.Equal(t, "v20,v21", cfg.Bfrops.Selection)
	assert.Equal(t, 256, cfg.Bfrops.InitialSize)
	assert.Equal(t, 8192, cfg.Bfrops.ThresholdSize)
	assert.Equal(t, "fully-desc", cfg.Bfrops.DefaultType)
	assert.Equal(t, "none", cfg.Psec.Selection)
	assert.Equal(t, 2, cfg.Psec.Verbose)
	assert.Equal(t, 2*time.Second, cfg.Progress.StopGrace)
	assert.Equal(t, "@every 1s", cfg.Progress.Keepalive)
}

func TestLoadConfigErrors(t *testing.T) {
	testutil.ClearMCAEnv(t)
	_, err := LoadConfig(feeders.NewYamlFeeder(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.ErrorIs(t, err, ErrConfigFeed)

	t.Setenv("PMIX_MCA_BFROPS_BASE_INITIAL_SIZE", "-1")
	_, err = LoadConfig(feeders.NewMCAEnvFeeder())
	assert.ErrorIs(t, err, ErrConfigInvalid)

	cfg, err := LoadConfig()
	require.NoError(t, err, "without feeders the environment is not read")
	assert.Equal(t, 128, cfg.Bfrops.InitialSize)
}

func TestLoadConfigFileSection(t *testing.T) {
	testutil.ClearMCAEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
listen: ":8080"
mca:
  allow_dynamic: false
  bfrops:
    selection: v21
    initial_size: 256
  progress:
    keepalive: ""
`), 0o600))
	tomlPath := filepath.Join(dir, "app.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
listen = ":8080"

[mca.psec]
selection = "none"
verbose = 3
`), 0o600))

	t.Setenv("PMIX_MCA_BFROPS_BASE_VERBOSE", "4")

	cfg, err := LoadConfigFile(yamlPath, "mca")
	require.NoError(t, err)
	assert.False(t, cfg.AllowDynamic)
	assert.Equal(t, "v21", cfg.Bfrops.Selection)
	assert.Equal(t, 256, cfg.Bfrops.InitialSize)
	assert.Equal(t, 4096, cfg.Bfrops.ThresholdSize)
	assert.Equal(t, 4, cfg.Bfrops.Verbose)
	assert.Empty(t, cfg.Progress.Keepalive)
	assert.Equal(t, "shared", cfg.Progress.Thread)

	cfg, err = LoadConfigFile(tomlPath, "mca")
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Psec.Selection)
	assert.Equal(t, 3, cfg.Psec.Verbose)
	assert.True(t, cfg.AllowDynamic)

	cfg, err = LoadConfigFile(yamlPath, "absent")
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Bfrops.InitialSize)
}

func TestLoadConfigFileErrors(t *testing.T) {
	testutil.ClearMCAEnv(t)
	dir := t.TempDir()

	_, err := LoadConfigFile(filepath.Join(dir, "mca.json"), "")
	assert.ErrorIs(t, err, ErrConfigFormat)
	assert.ErrorIs(t, err, status.ErrBadParam)

	tomlPath := filepath.Join(dir, "flat.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("mca = \"not a table\"\n"), 0o600))
	_, err = LoadConfigFile(tomlPath, "mca")
	assert.ErrorIs(t, err, ErrConfigFeed)
	assert.ErrorIs(t, err, feeders.ErrTomlExpectedTable)
}
