package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "admin", time.Hour)
	require.NoError(t, err)

	sub, role, err := ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
	assert.Equal(t, "admin", role)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("user-1", "user", -time.Minute)
	require.NoError(t, err)

	_, _, err = ExtractClaims(token)
	assert.Error(t, err)
}

func TestCheckHealth(t *testing.T) {
	status := CheckHealth(context.Background(), map[string]HealthCheck{
		"mongo": func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("refused") },
	})

	assert.False(t, status.Healthy)
	assert.Equal(t, map[string]bool{"mongo": true, "redis": false}, status.Components)
	assert.Equal(t, status, GetHealthStatus())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn", false))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus", true))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("", false))
}
