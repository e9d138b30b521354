// Package notify buffers fired reminders until the browser UI collects
// them, and tracks the notification permission the user granted there.
// It implements the scheduler's Notifier and Chime capabilities.
package notify

import (
	"sync"
	"time"

	"dayflow/internal/reminder"
)

// maxPending caps the backlog so an unattended session cannot grow it
// without bound.
const maxPending = 64

// Notification is one alert waiting for the UI to collect it.
type Notification struct {
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	FiredAt time.Time `json:"fired_at"`
}

// Center is the process-wide notification capability.
type Center struct {
	mu         sync.Mutex
	permission reminder.Permission
	pending    []Notification
	cue        bool
	now        func() time.Time
}

func NewCenter() *Center {
	return &Center{now: time.Now}
}

// Permission reports the current permission state.
func (c *Center) Permission() reminder.Permission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permission
}

// SetPermission records the permission the user chose in the browser.
// Granting is a one-shot user-gesture action there; this side only
// mirrors the result.
func (c *Center) SetPermission(p reminder.Permission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permission = p
}

// Notify queues one alert for collection.
func (c *Center) Notify(title, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, Notification{
		Title:   title,
		Body:    body,
		FiredAt: c.now(),
	})
	if len(c.pending) > maxPending {
		c.pending = c.pending[len(c.pending)-maxPending:]
	}
	return nil
}

// Play marks that the next collection should play the audio cue.
func (c *Center) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cue = true
}

// Drain returns and clears the pending alerts and the cue flag.
func (c *Center) Drain() ([]Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	cue := c.cue
	c.pending = nil
	c.cue = false
	return out, cue
}
