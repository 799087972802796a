package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBaseWithDevOverlay(t *testing.T) {
	cfg, err := Load(".", "dev")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, time.Minute, cfg.HTTP.IdleTimeout)

	// dev overlay fills the secrets base leaves empty
	assert.NotEmpty(t, cfg.MySQL.DSN)
	assert.NotEmpty(t, cfg.Rabbit.URL)
	assert.NotEmpty(t, cfg.Security.JWTSecret)

	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Recovery.StaleAfter)
}

func TestValidateRequiresCoreSettings(t *testing.T) {
	cfg, err := Load(".", "dev")
	require.NoError(t, err)

	broken := cfg
	broken.MySQL.DSN = ""
	assert.Error(t, broken.Validate())

	broken = cfg
	broken.Rabbit.URL = ""
	assert.Error(t, broken.Validate())

	broken = cfg
	broken.Security.JWTSecret = ""
	assert.Error(t, broken.Validate())
}
