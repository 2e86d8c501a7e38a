package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu   sync.RWMutex
	base = newLogger(os.Stdout)
)

func newLogger(w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

func active() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// SetOutput redirects all log output. The current level is kept.
func SetOutput(w io.Writer) {
	mu.Lock()
	lvl := base.GetLevel()
	base = newLogger(w)
	base.SetLevel(lvl)
	mu.Unlock()
}

// SetLevel accepts debug|info|warn|error; anything else means info.
func SetLevel(level string) {
	var lvl logrus.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = logrus.DebugLevel
	case "warn", "warning":
		lvl = logrus.WarnLevel
	case "error":
		lvl = logrus.ErrorLevel
	default:
		lvl = logrus.InfoLevel
	}
	active().SetLevel(lvl)
}

func WithFields(fields map[string]any) *logrus.Entry {
	return active().WithFields(logrus.Fields(fields))
}

func Debugf(format string, v ...any) { active().Debugf(format, v...) }

func Infof(format string, v ...any) { active().Infof(format, v...) }

func Warnf(format string, v ...any) { active().Warnf(format, v...) }

func Errorf(format string, v ...any) { active().Errorf(format, v...) }
