package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sara", cfg.ABR.Strategy)
	assert.Equal(t, defaultBufferSize, cfg.Buffer.Size)
	assert.Equal(t, defaultSARAWindow, cfg.ABR.SARAWindow)
	assert.False(t, cfg.PEP.Enabled)
	assert.False(t, cfg.Status.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("abr:\n  strategy: netflix\nbuffer:\n  size: 50\n")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "netflix", cfg.ABR.Strategy)
	assert.Equal(t, 50, cfg.Buffer.Size)
}

func TestValidate_RejectsUnknownStrategy(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("abr.strategy", "not-a-strategy")

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidate_RejectsInitialFillLargerThanBuffer(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("buffer.size", 3)
	v.Set("buffer.initial_fill", 10)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidate_RejectsBadMaxParallel(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("abr.max_parallel", 0)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	err := cfg.Validate()
	assert.Error(t, err)
}
