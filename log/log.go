// Package log provides structured logging with rotating file persistence.
package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/gauravRathod674/OtakuRealm/constant"
	"github.com/gauravRathod674/OtakuRealm/key"
	"github.com/gauravRathod674/OtakuRealm/where"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// enabled indicates the persistent logging state for the active application instance.
var enabled bool

// Fields is an alias so callers do not import logrus for structured entries.
type Fields = logrus.Fields

// Entry is a log entry carrying fields.
type Entry = logrus.Entry

// Setup initializes the logging subsystem: rotating file output, optional stderr mirror,
// formatter and severity level, all driven by configuration.
// If logging is disabled, all subsequent log emissions are discarded.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		logrus.SetOutput(io.Discard)
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   filepath.Join(dir, constant.App+".log"),
		MaxSize:    viper.GetInt(key.LogsMaxSize),
		MaxBackups: viper.GetInt(key.LogsMaxBackups),
		MaxAge:     viper.GetInt(key.LogsMaxAge),
		Compress:   viper.GetBool(key.LogsCompress),
	}

	if viper.GetBool(key.LogsStderr) {
		out = io.MultiWriter(os.Stderr, out)
	}
	logrus.SetOutput(out)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

// WithFields returns an entry carrying structured context.
// When logging is disabled the entry writes to the discarded standard logger.
func WithFields(fields Fields) *Entry {
	return logrus.WithFields(fields)
}

// Severity-Specific Log Emissions - these functions proxy messages to the configured backend when logging is enabled.

func Error(args ...interface{}) {
	if enabled {
		logrus.Error(args...)
	}
}
func Errorf(format string, args ...interface{}) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}
func Warn(args ...interface{}) {
	if enabled {
		logrus.Warn(args...)
	}
}
func Warnf(format string, args ...interface{}) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}
func Info(args ...interface{}) {
	if enabled {
		logrus.Info(args...)
	}
}
func Infof(format string, args ...interface{}) {
	if enabled {
		logrus.Infof(format, args...)
	}
}
func Debug(args ...interface{}) {
	if enabled {
		logrus.Debug(args...)
	}
}
func Debugf(format string, args ...interface{}) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
