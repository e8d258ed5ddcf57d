// Package log is the application logger. Entries go to a dated file under where.Logs
// when logs.write is set and are dropped otherwise.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/where"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields = logrus.Fields

var logger = silent()

func silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Setup configures the logger from viper. It may be called again after the config changes.
func Setup() error {
	if !viper.GetBool(key.LogsWrite) {
		logger = silent()
		return nil
	}

	path := filepath.Join(where.Logs(), time.Now().Format("2006-01-02")+".log")
	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	l := logrus.New()
	l.SetOutput(f)

	if viper.GetBool(key.LogsJson) {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	}

	level, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	logger = l
	return nil
}

// With returns an entry carrying fields.
func With(fields Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Error(args ...any) { logger.Error(args...) }

func Info(args ...any) { logger.Info(args...) }

func Infof(format string, args ...any) { logger.Infof(format, args...) }

func Warnf(format string, args ...any) { logger.Warnf(format, args...) }

func Debugf(format string, args ...any) { logger.Debugf(format, args...) }
