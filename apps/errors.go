// Package apps holds what the console commands share.
package apps

// ArgumentError reports a command line flag whose value cannot be used.
type ArgumentError struct {
	Flag string
	msg  string
}

func NewArgumentError(flag, msg string) *ArgumentError {
	return &ArgumentError{Flag: flag, msg: msg}
}

func (err *ArgumentError) Error() string {
	return "-" + err.Flag + ": " + err.msg
}
