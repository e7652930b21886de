package logger

import (
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Level{
		"debug":   log.DebugLevel,
		" WARN ":  log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"info":    log.InfoLevel,
		"":        log.InfoLevel,
		"verbose": log.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitWithFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	Init(Config{Level: "debug", File: filepath.Join(t.TempDir(), "momentum.log")})
	require.NotNil(t, Logger)
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())

	Debug("debug line", "k", 1)
	Info("info line")
	Warn("warn line")
	Error("error line")
}
