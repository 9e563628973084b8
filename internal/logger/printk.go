package logger

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// PrintkFormatter prefixes each line with the kernel printk level marker
// (<3> error, <4> warning, <6> info, <7> debug) understood by
// systemd-journald. Timestamps are left to the journal.
type PrintkFormatter struct{}

func (f *PrintkFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<%d>%s", printkLevel(e.Level), e.Message)
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func printkLevel(l logrus.Level) int {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return 3
	case logrus.WarnLevel:
		return 4
	case logrus.InfoLevel:
		return 6
	default:
		return 7
	}
}
