package core

// Logger is any service that can log messages.
// args may contain errors, maps of extra data and at most one Actor.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies who triggered the logged operation (eg. the teacher saving a report card).
type Actor struct {
	ID       string
	Username string
	Email    string
}
