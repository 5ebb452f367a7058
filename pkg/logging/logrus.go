package logging

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Setter applies a configuration change to the root logger.
type Setter func(*logrus.Logger) error

var root = struct {
	logger *logrus.Logger
	mutex  *sync.Mutex
}{
	logger: func() *logrus.Logger {
		l := logrus.New()

		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})

		return l
	}(),
	mutex: &sync.Mutex{},
}

// Logger is the handle components log through; it carries the component's
// name on every entry.
type Logger interface {
	logrus.FieldLogger

	Writer() *io.PipeWriter
	WriterLevel(logrus.Level) *io.PipeWriter
}

// New returns a component-scoped Logger, applying any provided Setters to the
// shared root logger first.
func New(component string, setters ...Setter) Logger {
	for _, setter := range setters {
		// no error handling for now
		_ = Set(setter)
	}
	return root.logger.WithField("component", component)
}

// Set applies a Setter to the root logger.
func Set(setter Setter) error {
	root.mutex.Lock()
	err := setter(root.logger)
	root.mutex.Unlock()
	return err
}

// Level returns a Setter that adjusts the root logger's level. Unparseable
// level names fall back to debug.
func Level(lvl string) Setter {
	l, err := logrus.ParseLevel(lvl)
	if err != nil {
		root.logger.WithError(err).Errorf("unable to parse provided level %q", lvl)
		l = logrus.DebugLevel
	}
	return func(r *logrus.Logger) error {
		r.SetLevel(l)
		return nil
	}
}

// Output returns a Setter that redirects the root logger's output.
func Output(w io.Writer) Setter {
	return func(r *logrus.Logger) error {
		r.SetOutput(w)
		return nil
	}
}
