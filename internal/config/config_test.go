package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Runner.PollIntervalMs)
	assert.Equal(t, 240, cfg.Runner.MaxPollAttempts)
	assert.Equal(t, 20, cfg.Janitor.StaleMinutes)
	assert.Equal(t, "/media", cfg.Media.PublicBaseURL)
	assert.Empty(t, cfg.Database.DSN)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("MEDIAFORGE_TEST_SECRET", "s3cret")

	cfg, err := Parse([]byte("janitor:\n  secret: ${MEDIAFORGE_TEST_SECRET}\n  staleMinutes: 30\n"))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Janitor.Secret)
	assert.Equal(t, 30, cfg.Janitor.StaleMinutes)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unclosed"))
	assert.Error(t, err)
}
