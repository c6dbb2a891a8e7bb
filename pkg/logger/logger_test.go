//go:build unit || !integration

package logger

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *strings.Builder {
	oldLogger := log.Logger
	oldContextLogger := zerolog.DefaultContextLogger
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.DefaultContextLogger = oldContextLogger
	})

	var logging strings.Builder
	configureLogging(consoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = &logging
		w.NoColor = true
	}))
	return &logging
}

func TestConfigureLogging(t *testing.T) {
	logging := captureLogs(t)

	err := errors.New("testing error logging")
	log.Error().Stack().Err(err).Msg("testing message")

	actual := logging.String()
	t.Log(actual)

	assert.Contains(t, actual, "testing message", "Log statement doesn't contain the log message")
	assert.Contains(t, actual, `error="testing error logging"`, "Log statement doesn't contain the logged error")
	assert.Contains(t, actual, "logger/logger_test.go", "Log statement doesn't contain the caller")
	assert.Contains(t, actual, `"func":"TestConfigureLogging"`, "Log statement didn't include the error's stacktrace")
}

func TestContextWithCanisterLogger(t *testing.T) {
	logging := captureLogs(t)

	ctx := ContextWithCanisterLogger(context.Background(), "backend")
	log.Ctx(ctx).Info().Msg("hello")

	assert.Contains(t, logging.String(), "[canister:backend]")
}

func TestParseLogMode(t *testing.T) {
	mode, err := ParseLogMode("json")
	require.NoError(t, err)
	assert.Equal(t, LogModeJSON, mode)

	_, err = ParseLogMode("station")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
}
