package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/licensekit/pkg/config"
)

type serverTestConfig struct {
	Addr    string `env:"LOADER_TEST_ADDR" envDefault:":8080"`
	Secret  string `env:"LOADER_TEST_SECRET,required"`
	Retries int    `env:"LOADER_TEST_RETRIES" envDefault:"3"`
}

type missingRequiredConfig struct {
	Token string `env:"LOADER_TEST_ABSENT_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Setenv("LOADER_TEST_SECRET", "s3cret")
	t.Setenv("LOADER_TEST_RETRIES", "5")

	var cfg serverTestConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, 5, cfg.Retries)

	// Second load returns the cached copy even if the environment changed.
	t.Setenv("LOADER_TEST_RETRIES", "9")
	var again serverTestConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, 5, again.Retries)
}

func TestLoadErrors(t *testing.T) {
	err := config.Load[serverTestConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)

	var cfg missingRequiredConfig
	err = config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}
