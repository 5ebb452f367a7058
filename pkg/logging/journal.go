package logging

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Journal returns a Setter that mirrors entries into the systemd journal.
// Useful when the agent runs under a unit on a CI host; text output continues
// to flow to the configured writer.
func Journal() Setter {
	return func(r *logrus.Logger) error {
		if !journal.Enabled() {
			return errors.New("systemd journal is not available")
		}
		r.AddHook(&journalHook{})
		return nil
	}
}

type journalHook struct{}

func (*journalHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (*journalHook) Fire(entry *logrus.Entry) error {
	vars := make(map[string]string, len(entry.Data))
	for k, v := range entry.Data {
		vars["SPINWATCH_"+normalizeJournalKey(k)] = stringify(v)
	}
	return journal.Send(entry.Message, priority(entry.Level), vars)
}

func priority(lvl logrus.Level) journal.Priority {
	switch lvl {
	case logrus.PanicLevel, logrus.FatalLevel:
		return journal.PriCrit
	case logrus.ErrorLevel:
		return journal.PriErr
	case logrus.WarnLevel:
		return journal.PriWarning
	case logrus.InfoLevel:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// Journal variable names are restricted to uppercase ASCII and underscores.
func normalizeJournalKey(k string) string {
	out := make([]byte, 0, len(k))
	for i := 0; i < len(k); i++ {
		c := k[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case error:
		return s.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
