package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process-wide structured logger. Production gets JSON
// output for log shipping; everything else gets human-readable text with
// debug level enabled.
func New(env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	switch env {
	case "production":
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}
