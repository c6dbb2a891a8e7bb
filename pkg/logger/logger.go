package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

type LogMode string

// Available logging modes
const (
	LogModeDefault  LogMode = "default"
	LogModeJSON     LogMode = "json"
	LogModeCombined LogMode = "combined"
	LogModeEvent    LogMode = "event"
)

var stderr = struct{ io.Writer }{os.Stderr}

const canisterFieldName = "canister"

func init() { //nolint:gochecknoinits // init with zerolog is idiomatic
	configureLogging(defaultWriter(LogMode(strings.ToLower(os.Getenv("LOG_TYPE")))))
}

func ParseLogMode(s string) (LogMode, error) {
	modes := []LogMode{LogModeDefault, LogModeJSON, LogModeCombined, LogModeEvent}
	for _, mode := range modes {
		if s == string(mode) {
			return mode, nil
		}
	}
	return "", fmt.Errorf("%q is an invalid log-mode (valid modes: %q)", s, modes)
}

type tTesting interface {
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
	Cleanup(f func())
}

// ConfigureTestLogging allows logs to be associated with individual tests
func ConfigureTestLogging(t tTesting) {
	oldLogger := log.Logger
	oldContextLogger := zerolog.DefaultContextLogger
	configureLogging(consoleWriter(zerolog.ConsoleTestWriter(t)))
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.DefaultContextLogger = oldContextLogger
	})
}

// ConfigureLogging replaces the global logger with one writing in the given mode.
func ConfigureLogging(mode LogMode) {
	configureLogging(defaultWriter(mode))
}

func defaultWriter(mode LogMode) io.Writer {
	textWriter := consoleWriter()
	switch mode {
	case LogModeJSON:
		return os.Stdout
	case LogModeCombined:
		return zerolog.MultiLevelWriter(textWriter, os.Stdout)
	case LogModeEvent:
		return io.Discard
	default:
		return textWriter
	}
}

func consoleWriter(loggingOptions ...func(w *zerolog.ConsoleWriter)) zerolog.ConsoleWriter {
	isTerminal := isatty.IsTerminal(os.Stdout.Fd())

	defaultLogging := func(w *zerolog.ConsoleWriter) {
		w.Out = stderr
		w.NoColor = !isTerminal
		w.TimeFormat = "15:04:05.999 |"
		w.PartsOrder = []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		}
		w.FormatFieldName = func(i interface{}) string {
			return fmt.Sprintf("[%s:", i)
		}
		w.FormatFieldValue = func(i interface{}) string {
			// fields that were never set print as empty brackets
			if i == nil {
				i = ""
			}
			return fmt.Sprintf("%s]", i)
		}
	}

	loggingOptions = append([]func(w *zerolog.ConsoleWriter){defaultLogging}, loggingOptions...)
	return zerolog.NewConsoleWriter(loggingOptions...)
}

func configureLogging(w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.SetGlobalLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		short := file
		separatorCount := 2
		countedSeparators := 0
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				countedSeparators += 1
				if countedSeparators >= separatorCount {
					short = file[i+1:]
					break
				}
			}
		}
		return short + ":" + strconv.Itoa(line)
	}

	log.Logger = zerolog.New(w).With().Timestamp().Caller().Logger()
	// Code without a context-scoped logger falls back to the global one.
	zerolog.DefaultContextLogger = &log.Logger
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextWithCanisterLogger returns a context whose logger tags every line with the canister name.
func ContextWithCanisterLogger(ctx context.Context, canister string) context.Context {
	l := log.Ctx(ctx).With().Str(canisterFieldName, canister).Logger()
	return l.WithContext(ctx)
}
