// Package log configures logrus for framesync and hands out per-component entries.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/key"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var closer io.Closer

// Setup applies logs.level, logs.json and logs.file to the standard logrus logger.
func Setup() error {
	if path := viper.GetString(key.LogsFile); path != "" {
		f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("log: open log file failed: %w", err)
		}
		Close()
		closer = f
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(os.Stderr)
	}

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	return nil
}

// Close releases the log file opened by Setup, if any.
func Close() {
	if closer != nil {
		logrus.SetOutput(os.Stderr)
		_ = closer.Close()
		closer = nil
	}
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
