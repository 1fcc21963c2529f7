// Package logger provides the process-wide structured logger. Components
// that need to log take a *logrus.Logger as a constructor argument instead
// of reaching into this package's global, so unit tests can inject a
// discarding logger; main.go is the only caller expected to use New
// directly and hand the result around.
package logger

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide instance wired up by Init, kept for parity
// with callers that do not carry an explicit logger reference (e.g. very
// early bootstrap code in main.go before the Runtime exists).
var Logger *logrus.Logger

// Init creates and installs the process-wide logger at the given level,
// logging to ~/.plcbridge/logs/plcbridge.log. Failures to create the log
// directory or file fall back to stderr rather than aborting startup.
func Init(level string) {
	Logger = New(level)
}

// New builds a standalone logger instance at the given level. Prefer this
// over the Init/Logger globals wherever a component can take the logger as
// a constructor argument.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&CustomFormatter{})
	log.SetLevel(parseLevel(level))

	logDir := getLogDir()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Errorf("failed to create log directory %s: %v", logDir, err)
		return log
	}

	logFile := filepath.Join(logDir, "plcbridge.log")
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Errorf("failed to open log file %s: %v", logFile, err)
		return log
	}
	log.SetOutput(file)
	return log
}

// SetLevel adjusts the process-wide logger's level at runtime, used by the
// config hot-reload hook (SPEC_FULL.md C6/C7).
func SetLevel(level string) {
	if Logger != nil {
		Logger.SetLevel(parseLevel(level))
	}
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func getLogDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".plcbridge", "logs")
	}
	return filepath.Join(homeDir, ".plcbridge", "logs")
}

// Info logs at info level on the process-wide logger, if initialised.
func Info(args ...interface{}) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

// Error logs at error level on the process-wide logger, if initialised.
func Error(args ...interface{}) {
	if Logger != nil {
		Logger.Error(args...)
	}
}

// Debug logs at debug level on the process-wide logger, if initialised.
func Debug(args ...interface{}) {
	if Logger != nil {
		Logger.Debug(args...)
	}
}

// Warn logs at warn level on the process-wide logger, if initialised.
func Warn(args ...interface{}) {
	if Logger != nil {
		Logger.Warn(args...)
	}
}
