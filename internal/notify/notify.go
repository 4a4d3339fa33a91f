// Package notify carries user-facing messages from the core to whatever
// presentation shell is attached. Every classified failure in the location
// cascade maps to a distinct message here.
package notify

import (
	"sync"
	"time"

	"github.com/ihza212325/trashpin/internal/queue"
)

// Level is the toast severity.
type Level int

const (
	LevelSuccess Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Toast is a single message for the user.
type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Center queues toasts and fans them out to subscribers. Messages pushed
// before any subscriber attaches are held and delivered on Drain.
type Center struct {
	mu      sync.RWMutex
	pending *queue.Queue[Toast]
	subs    []func(Toast)
}

// NewCenter creates an empty toast center.
func NewCenter() *Center {
	return &Center{
		pending: queue.New[Toast](),
	}
}

// Subscribe registers a callback invoked for every subsequent toast.
func (c *Center) Subscribe(fn func(Toast)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Success pushes a success-level toast.
func (c *Center) Success(msg string) { c.push(LevelSuccess, msg) }

// Warning pushes a warning-level toast.
func (c *Center) Warning(msg string) { c.push(LevelWarning, msg) }

// Error pushes an error-level toast.
func (c *Center) Error(msg string) { c.push(LevelError, msg) }

func (c *Center) push(level Level, msg string) {
	toast := Toast{Level: level, Message: msg, Time: time.Now()}

	c.mu.RLock()
	subs := make([]func(Toast), len(c.subs))
	copy(subs, c.subs)
	c.mu.RUnlock()

	c.pending.Push(toast)
	for _, fn := range subs {
		fn(toast)
	}
}

// Drain returns all queued toasts in order and empties the backlog.
func (c *Center) Drain() []Toast {
	return c.pending.Drain()
}

// Pending returns the number of undrained toasts.
func (c *Center) Pending() int {
	return c.pending.Len()
}
