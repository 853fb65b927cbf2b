// Package logging configures the logrus logger shared by the simulator.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
)

// New builds a text logger writing to out. LOG_LEVEL overrides level when set.
func New(level string, out io.Writer) *logrus.Logger {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}

	log := logrus.New()
	log.Out = out
	log.SetLevel(ParseLevel(level))
	log.SetReportCaller(true)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: false,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := path.Base(f.File)
			return fmt.Sprintf("%s:%d", filename, f.Line), " "
		},
	})
	return log
}

// ParseLevel falls back to info for unknown names.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}
