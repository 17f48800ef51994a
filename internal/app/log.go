package app

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Packages log through it so that tests can
// swap the output or attach hooks in one place.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetupLogging applies the configured level; unknown levels keep "info".
func SetupLogging(cfg Config) {
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		Log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

func Must(err error) {
	if err != nil {
		Log.Fatal(err)
	}
}
