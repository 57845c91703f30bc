// Package log is the module-wide leveled logger.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetLevel sets the minimum level that gets logged. Accepts the usual names
// ("debug", "info", "warn", "error", ...).
func SetLevel(level string) error {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lv)
	return nil
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Errorf logs an error.
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
