package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	isDevelopment = false // if running in debug mode

	logFile *os.File = nil

	// AdHocLogger is for the places where threading the service logger
	// through is not worth it.
	AdHocLogger zerolog.Logger

	once sync.Once

	globalLogger zerolog.Logger
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	AdHocLogger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "ad-hoc-logger").Caller().Logger()
}

// GetLogger returns the process-wide logger, created on first use. In
// development mode it writes human-readable lines at trace level; otherwise
// structured JSON to stderr.
func GetLogger(serviceName string) zerolog.Logger {

	once.Do(func() {

		if !isDevelopment {
			globalLogger = zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
			return
		}

		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339,
			FormatLevel: func(i any) string {
				return strings.ToUpper(fmt.Sprintf("[%5s]", i))
			},
			FormatMessage: func(i any) string {
				return fmt.Sprintf("| %s |", i)
			},
			FormatCaller: func(i any) string {
				return filepath.Base(fmt.Sprintf("%s", i))
			},
			PartsExclude: []string{
				zerolog.TimestampFieldName,
			}}

		var w zerolog.LevelWriter
		if logFile != nil {
			w = zerolog.MultiLevelWriter(consoleWriter, logFile)
		} else {
			w = zerolog.MultiLevelWriter(consoleWriter)
		}
		globalLogger = zerolog.New(w).Level(zerolog.TraceLevel).With().Timestamp().Str("service", serviceName).Caller().Logger()
	})

	return globalLogger
}

// SetDevelopment must run before the first GetLogger call to take effect.
func SetDevelopment(value bool) {
	isDevelopment = value
}

// SetLogFile adds a file the development logger duplicates its output to.
func SetLogFile(file *os.File) {
	logFile = file
}
