// Package capture turns a continuous microphone stream into discrete
// utterances using energy-based endpointing: a loud frame opens an utterance,
// a sustained stretch of silence closes it, and anything too short or too
// small is dropped as noise.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"santacall/app/media"
)

const (
	// volumeThreshold is the normalized level above which a frame counts as speech.
	volumeThreshold = 0.01
	// silenceWindow closes the current utterance after this much quiet.
	silenceWindow = 1500 * time.Millisecond
	// minVoiced discards utterances with less sustained signal than this.
	minVoiced = 500 * time.Millisecond
	// minBytes discards encoded payloads smaller than this.
	minBytes = 1024
)

// Frame is one chunk of microphone audio with its precomputed level.
type Frame struct {
	Data  []byte
	Level float64
	Dur   time.Duration
}

// Source is the black-box microphone: it emits frames until closed.
type Source interface {
	Open(ctx context.Context) (<-chan Frame, error)
	ContentType() string
	Close() error
}

type Utterance struct {
	Data        []byte
	Duration    time.Duration
	ContentType string
}

type Session struct {
	capability *media.Capability
	source     Source
	onComplete func(Utterance)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	release func()
	done    chan struct{}
}

func NewSession(capability *media.Capability, source Source, onComplete func(Utterance)) *Session {
	return &Session{
		capability: capability,
		source:     source,
		onComplete: onComplete,
	}
}

// Start opens the microphone and begins endpointing. Calling it while already
// listening is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	release, err := s.capability.Acquire("capture")
	if err != nil {
		return fmt.Errorf("%w: %w", media.ErrDevice, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	frames, err := s.source.Open(ctx)
	if err != nil {
		cancel()
		release()
		return fmt.Errorf("%w: %w", media.ErrDevice, err)
	}

	s.running = true
	s.cancel = cancel
	s.release = release
	s.done = make(chan struct{})

	go s.run(ctx, frames, s.done)

	return nil
}

// Stop always fully releases the underlying audio device, even when called
// twice or while no capture is running.
func (s *Session) Stop() {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		return
	}

	s.running = false
	cancel := s.cancel
	release := s.release
	done := s.done
	s.cancel = nil
	s.release = nil
	s.mu.Unlock()

	cancel()
	<-done

	if err := s.source.Close(); err != nil {
		slog.Warn("Failed to close capture source", "error", err)
	}
	release()
}

func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

func (s *Session) run(ctx context.Context, frames <-chan Frame, done chan struct{}) {
	defer close(done)

	var (
		buf       []byte
		voiced    time.Duration
		recording bool
		quietFor  time.Duration
	)

	flush := func() {
		defer func() {
			buf = nil
			voiced = 0
			recording = false
			quietFor = 0
		}()

		if !recording {
			return
		}

		if voiced < minVoiced || len(buf) < minBytes {
			slog.Debug("Dropping utterance as noise",
				"voiced", voiced,
				"bytes", len(buf))
			return
		}

		utterance := Utterance{
			Data:        buf,
			Duration:    voiced,
			ContentType: s.source.ContentType(),
		}

		slog.Debug("Utterance captured",
			"duration", utterance.Duration,
			"bytes", len(utterance.Data))

		s.onComplete(utterance)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case frame, ok := <-frames:
			if !ok {
				flush()
				return
			}

			if frame.Level > volumeThreshold {
				recording = true
				quietFor = 0
				voiced += frame.Dur
				buf = append(buf, frame.Data...)
				continue
			}

			if !recording {
				continue
			}

			// Keep trailing silence in the payload so words are not clipped.
			buf = append(buf, frame.Data...)
			quietFor += frame.Dur

			if quietFor >= silenceWindow {
				flush()
			}
		}
	}
}
