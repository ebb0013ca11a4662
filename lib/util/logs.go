package util

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SetLogLevel sets the logger level from the LOG_LEVEL environment value.
// Unknown or empty values fall back to info.
func SetLogLevel(logger *logrus.Logger, level string) {
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}
