// Package logging builds the process-wide logrus logger (§4.12): a
// nested-logrus-formatter setup so every actor's pre-populated fields
// (conn_id, remote_addr, channel) render as bracketed values in a fixed
// order (field keys are hidden) rather than raw logrus defaults.
package logging

import (
	"io"
	"os"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

// New builds the base logger. level is parsed with logrus.ParseLevel;
// an unrecognised level falls back to info.
func New(level string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&formatter.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		HideKeys:        true,
		FieldsOrder:     []string{"conn_id", "remote_addr", "channel", "actor"},
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}
