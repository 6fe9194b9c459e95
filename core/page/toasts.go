package page

import "sync"

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Toast struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier shows short messages to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// Toasts queues notifications until the next response drains them.
type Toasts struct {
	mu    sync.Mutex
	queue []Toast
}

func (t *Toasts) Notify(level Level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, Toast{Level: level, Message: msg})
}

// Drain returns the queued toasts and empties the queue.
func (t *Toasts) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	toasts := t.queue
	t.queue = nil
	return toasts
}
