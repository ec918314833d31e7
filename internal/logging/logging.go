// Package logging provides the service's structured logger: a package-level
// logrus instance plus With* convenience wrappers scoped to this domain's
// fields (device, interface, component).
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Logger is the global logger instance for the process.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   !term.IsTerminal(int(os.Stderr.Fd())),
	})
}

// SetLevel parses and applies a log level by name.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output. Color is disabled unconditionally, since
// a redirected writer is never the interactive terminal init() detected.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
	if f, ok := Logger.Formatter.(*logrus.TextFormatter); ok {
		f.DisableColors = true
	}
}

// SetJSONFormat switches to JSON-formatted log lines, for production
// deployments behind a log aggregator.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns an entry with a single field attached.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns an entry with multiple fields attached.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithDevice returns an entry scoped to a device FQDN.
func WithDevice(fqdn string) *logrus.Entry {
	return Logger.WithField("device", fqdn)
}

// WithInterface returns an entry scoped to a device FQDN and ifIndex.
func WithInterface(fqdn string, ifIndex int32) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{"device": fqdn, "if_index": ifIndex})
}

// WithComponent returns an entry scoped to one of the named components
// (scheduler, imds, gateway, bus, topocache, httpapi).
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}
