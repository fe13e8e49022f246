package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLogLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	testCases := map[string]zerolog.Level{
		"DEBUG": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"Warn":  zerolog.WarnLevel,
		"ERROR": zerolog.ErrorLevel,
	}
	for level, want := range testCases {
		t.Run(level, func(t *testing.T) {
			closeLog, err := openLog(level, "stderr", true)
			require.NoError(t, err)
			closeLog()
			assert.Equal(t, want, zerolog.GlobalLevel())
		})
	}

	_, err := openLog("chatty", "stderr", false)
	assert.Error(t, err)
}

func TestOpenLogFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	orig := log.Logger
	defer func() { log.Logger = orig }()

	path := filepath.Join(t.TempDir(), "sanitized.log")
	closeLog, err := openLog("info", path, true)
	require.NoError(t, err)
	log.Info().Msg("hello file")
	closeLog()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"hello file"`)
}

func TestRemovePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sanitized.pid")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0644))

	removePIDFile(path)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
