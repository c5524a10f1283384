package global

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)
	logg.SetLevel(logrus.InfoLevel)
}

// Logger returns the process wide structured logger
func Logger() *logrus.Logger {
	return logg
}

// ConfigureLogger applies LOG_LEVEL once the environment has been loaded
func ConfigureLogger() {
	level, err := logrus.ParseLevel(strings.ToLower(GetEnvOrDefault("LOG_LEVEL", "info")))
	if err != nil {
		logg.Warnf("Unknown LOG_LEVEL, keeping %s", logg.GetLevel())
		return
	}
	logg.SetLevel(level)
}

func LogError(moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logg.WithFields(fields).Error(err.Error())
}
