// Package applog provides the process-global debug-level gate and
// structured console logger used throughout waytinier-go.
//
// The debug level is read once from WAYTINIER_DEBUGLVL (falling back to the
// legacy DEBUGLVL name) at Init time and is read-only thereafter, matching
// the original implementation's once-set, read-many global.
package applog

import (
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level mirrors the five-step verbosity scale from the specification.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelImportant
	LevelTrivial
	LevelVerbose
	LevelSuperVerbose
)

var (
	once  sync.Once
	level Level
	lg    zerolog.Logger
)

// Init parses WAYTINIER_DEBUGLVL (or DEBUGLVL) into a Level, configures the
// global zerolog logger accordingly, and is safe to call more than once:
// only the first call takes effect.
func Init() {
	once.Do(func() {
		raw := os.Getenv("WAYTINIER_DEBUGLVL")
		if raw == "" {
			raw = os.Getenv("DEBUGLVL")
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < int(LevelNone) || n > int(LevelSuperVerbose) {
			n = int(LevelNone)
		}
		level = Level(n)

		lg = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(toZerolog(level))
		log.Logger = lg
	})
}

func toZerolog(l Level) zerolog.Level {
	switch {
	case l <= LevelNone:
		return zerolog.Disabled
	case l == LevelError:
		return zerolog.ErrorLevel
	case l == LevelImportant:
		return zerolog.WarnLevel
	case l == LevelTrivial:
		return zerolog.InfoLevel
	case l == LevelVerbose:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// CurrentLevel returns the level latched by Init (LevelNone if Init was
// never called).
func CurrentLevel() Level { return level }

// Enabled reports whether the given level would currently be logged.
func Enabled(l Level) bool { return level >= l }

// Logger returns the shared logger, initializing it with defaults if Init
// was never called.
func Logger() *zerolog.Logger {
	Init()
	return &lg
}

// Debugf emits a debug-level line tagged with the given component name,
// gated by the component-neutral Verbose level.
func Debugf(component, format string, args ...any) {
	Init()
	if !Enabled(LevelVerbose) {
		return
	}
	lg.Debug().Str("component", component).Msgf(format, args...)
}

// Important emits an important-level line, the level most of the protocol
// object handlers use for configure/ack/resize/close notices.
func Important(component, msg string) {
	Init()
	if !Enabled(LevelImportant) {
		return
	}
	lg.Warn().Str("component", component).Msg(msg)
}

// Errorf emits an error-level line.
func Errorf(component string, err error) {
	Init()
	if !Enabled(LevelError) {
		return
	}
	lg.Error().Str("component", component).Err(err).Msg("")
}
