package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault/pkg/config"
)

type envDefaultsConfig struct {
	Addr    string `env:"CFGTEST_ADDR" envDefault:":8080"`
	Retries int    `env:"CFGTEST_RETRIES" envDefault:"3"`
	Debug   bool   `env:"CFGTEST_DEBUG" envDefault:"false"`
}

type envOverrideConfig struct {
	Addr    string `env:"CFGTEST_OVERRIDE_ADDR" envDefault:":8080"`
	Retries int    `env:"CFGTEST_OVERRIDE_RETRIES" envDefault:"3"`
}

type envRequiredConfig struct {
	Secret string `env:"CFGTEST_REQUIRED_SECRET,required"`
}

type envCachedConfig struct {
	Value string `env:"CFGTEST_CACHED_VALUE" envDefault:"initial"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg envDefaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 3, cfg.Retries)
	assert.False(t, cfg.Debug)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("CFGTEST_OVERRIDE_ADDR", ":9090")
	t.Setenv("CFGTEST_OVERRIDE_RETRIES", "7")

	var cfg envOverrideConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 7, cfg.Retries)
}

func TestLoad_RequiredMissing(t *testing.T) {
	var cfg envRequiredConfig
	err := config.Load(&cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[envDefaultsConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoad_CachedPerType(t *testing.T) {
	t.Setenv("CFGTEST_CACHED_VALUE", "first")

	var first envCachedConfig
	require.NoError(t, config.Load(&first))
	require.Equal(t, "first", first.Value)

	// Later environment changes must not leak into already-loaded types.
	t.Setenv("CFGTEST_CACHED_VALUE", "second")

	var second envCachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)
}
