package core

// Logger is implemented by any service that can ship app logs.
// Implementations may inspect args for well-known types (an error attaches a
// stack trace, a user attaches the person) before printing the rest.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
