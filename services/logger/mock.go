package logsvc

import (
	"fmt"
	"sync"

	"github.com/trezcool/masomo-console/core"
)

// Entry is one message recorded by LoggerMock.
type Entry struct {
	Level   string
	Message string
	Args    []interface{}
}

// LoggerMock records messages instead of reporting them.
type LoggerMock struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*LoggerMock)(nil)

func NewLoggerMock() *LoggerMock {
	return &LoggerMock{}
}

func (l *LoggerMock) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Message: msg, Args: args})
}

// Entries returns the recorded messages of level, or all of them when level is empty.
func (l *LoggerMock) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }

func (l *LoggerMock) Info(msg string, args ...interface{}) { l.log("info", msg, args) }

func (l *LoggerMock) Warn(msg string, args ...interface{}) { l.log("warn", msg, args) }

func (l *LoggerMock) Error(msg string, args ...interface{}) { l.log("error", msg, args) }

func (l *LoggerMock) Fatal(msg string, args ...interface{}) {
	l.log("fatal", msg, args)
	panic(fmt.Sprintf("fatal: %s", msg))
}
