package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_LevelAndFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	path := filepath.Join(t.TempDir(), "relay.log")
	Setup(Config{Level: "warn", File: path, JSON: true})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	l := Component("test")
	l.Warn().Msg("written")
	l.Info().Msg("filtered")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), "written")
	assert.NotContains(t, string(data), "filtered")
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Setup(Config{Level: "loud", Console: true})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
