// internal/logger/logger.go
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logrus logger configured from LOG_LEVEL and LOG_FORMAT.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	level, err := logrus.ParseLevel(getLevel())
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

func getLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}
