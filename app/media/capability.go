// Package media models the process-wide audio device as an explicit
// capability: it must be unlocked once by a user gesture, and capture and
// playback acquire it exclusively so the two can never run at the same time.
package media

import (
	"errors"
	"sync"
)

var (
	ErrDevice   = errors.New("audio device unavailable")
	ErrLocked   = errors.New("audio device not unlocked by a user gesture")
	ErrAcquired = errors.New("audio device already acquired")
)

type Capability struct {
	mu       sync.Mutex
	unlocked bool
	owner    string
}

func NewCapability() *Capability {
	return &Capability{}
}

// Unlock marks the device usable. Callers must invoke it from a user-gesture
// handler; calling it again is a no-op.
func (c *Capability) Unlock() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unlocked = true
}

func (c *Capability) Unlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.unlocked
}

// Acquire claims exclusive ownership of the device for the named consumer.
// The returned release function is idempotent.
func (c *Capability) Acquire(owner string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.unlocked {
		return nil, ErrLocked
	}

	if c.owner != "" && c.owner != owner {
		return nil, ErrAcquired
	}

	c.owner = owner

	var once sync.Once
	release := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			if c.owner == owner {
				c.owner = ""
			}
		})
	}

	return release, nil
}

func (c *Capability) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.owner
}
