package tickwait

import "github.com/sirupsen/logrus"

var log = logrus.New()

// SetLogger replaces the logger used by schedulers created afterwards
// without [WithLogger], and by [Pool]s.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		panic("tickwait: SetLogger(nil)")
	}
	log = l
}

// Logger returns the package logger.
func Logger() *logrus.Logger {
	return log
}
