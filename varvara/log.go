package varvara

// Logger receives diagnostics about unimplemented device features and
// peripheral failures. It is satisfied by logrus loggers and entries.
type Logger interface {
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}
