package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatPrintk Format = "printk"
)

type Options struct {
	Level  string
	Format Format
	Output io.Writer
}

var std = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(textFormatter(os.Stderr))
	return l
}

// Init configures the package logger. Empty fields keep their defaults:
// info level, text format, stderr.
func Init(opts Options) error {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	lvl := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		lvl = l
	}
	var f logrus.Formatter
	switch opts.Format {
	case "", FormatText:
		f = textFormatter(out)
	case FormatJSON:
		f = &logrus.JSONFormatter{}
	case FormatPrintk:
		f = &PrintkFormatter{}
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}
	std.SetOutput(out)
	std.SetLevel(lvl)
	std.SetFormatter(f)
	return nil
}

func textFormatter(out io.Writer) *logrus.TextFormatter {
	color := isTerminal(out)
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
		ForceColors:     color,
		DisableColors:   !color,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func Debug(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	std.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// WithField returns an entry that carries key=value on every line.
func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}
