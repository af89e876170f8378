// Package logging builds the process-wide structured logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// New creates a logrus logger with the given level and format.
// Unknown levels fall back to info; any format other than "json" selects
// the text formatter.
func New(level, format string) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
