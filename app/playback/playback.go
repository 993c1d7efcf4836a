// Package playback plays a single audio resource to completion or until
// stopped. The ended signal fires exactly once per play, whether the audio
// finished, was stopped, or failed to decode - the flow controller must never
// wait on a resource that silently died.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"santacall/app/media"
)

// Resource is one playable audio: either raw synthesized bytes or a reference
// to a static asset.
type Resource struct {
	Ref  string
	Data []byte
}

func (r Resource) String() string {
	if r.Ref != "" {
		return r.Ref
	}
	return fmt.Sprintf("tts[%d bytes]", len(r.Data))
}

// Player is the black-box audio output. Play blocks until the resource
// finishes or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, res Resource) error
}

type Session struct {
	capability *media.Capability
	player     Player

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(capability *media.Capability, player Player) *Session {
	return &Session{
		capability: capability,
		player:     player,
	}
}

// Play starts the resource and invokes onEnded exactly once when it finishes
// for any reason. A playback already in progress is stopped first.
func (s *Session) Play(ctx context.Context, res Resource, onEnded func()) error {
	s.Stop()

	release, err := s.capability.Acquire("playback")
	if err != nil {
		return fmt.Errorf("%w: %w", media.ErrDevice, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	var once sync.Once

	go func() {
		defer close(done)
		defer release()

		err := s.player.Play(ctx, res)
		if err != nil && ctx.Err() == nil {
			// Decode/playback errors degrade to "ended" so the flow never stalls.
			slog.Warn("Playback failed, treating as ended",
				"resource", res.String(),
				"error", err)
		}

		once.Do(onEnded)
	}()

	return nil
}

// Stop interrupts the current playback, if any, and waits for its ended
// signal to be delivered.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.done != nil
}
