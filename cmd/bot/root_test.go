package main

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minigame-bot/internal/config"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "minigame-bot dev")
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	root := newRootCmd()
	root.SetArgs([]string{"--config", t.TempDir(), "migrate", "sideways"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}

func TestMigrateMemoryIsNoop(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	root := newRootCmd()
	root.SetArgs([]string{"--config", t.TempDir(), "migrate", "up"})

	assert.NoError(t, root.Execute())
}

func TestSetupLoggerLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	setupLogger(&config.LogConfig{Level: "DEBUG"})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	setupLogger(&config.LogConfig{Level: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
