package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const serviceName = "kitchen-backend"

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

// serviceHook stamps every entry with the service name so shared log sinks can filter on it.
type serviceHook struct{}

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = serviceName
	}
	return nil
}

func init() {
	logg = newLogger(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

// newLogger defaults to JSON at error level. LOG_FORMAT=text is meant for local runs.
func newLogger(format string, level string) *logrus.Logger {
	l := logrus.New()
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.ErrorLevel)
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		l.SetLevel(lvl)
	}
	l.AddHook(serviceHook{})
	return l
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
