package console

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// ConsoleLogger implements logger.LoggerInstance on top of charmbracelet/log.
type ConsoleLogger struct {
	logger *log.Logger
}

// ConsoleLoggerParams contains configuration for creating a ConsoleLogger.
//
// Output defaults to stderr. Prefix is shown before every message, the
// worker and server use it to tell their lines apart in a shared terminal.
type ConsoleLoggerParams struct {
	Debug  bool
	Prefix string
	Output io.Writer
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(params ConsoleLoggerParams) *ConsoleLogger {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	out := params.Output
	if out == nil {
		out = os.Stderr
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          params.Prefix,
	})
	return &ConsoleLogger{
		logger: logger,
	}
}

func (c *ConsoleLogger) Log(message string, keyvals ...any) {
	c.logger.Print(message, keyvals...)
}

func (c *ConsoleLogger) Info(message string, keyvals ...any) {
	c.logger.Info(message, keyvals...)
}

func (c *ConsoleLogger) Warn(message string, keyvals ...any) {
	c.logger.Warn(message, keyvals...)
}

func (c *ConsoleLogger) Error(message string, keyvals ...any) {
	c.logger.Error(message, keyvals...)
}

func (c *ConsoleLogger) Debug(message string, keyvals ...any) {
	c.logger.Debug(message, keyvals...)
}

func (c *ConsoleLogger) Fatal(message string, keyvals ...any) {
	c.logger.Fatal(message, keyvals...)
}
