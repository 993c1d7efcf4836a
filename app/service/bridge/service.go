// Package bridge is the hub between the flow core and the browser: the
// frontend streams microphone frames in and polls presentation state out,
// while the core sees an ordinary capture source and audio player.
package bridge

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"santacall/app/capture"
	"santacall/app/flow"
	"santacall/app/playback"

	"github.com/samber/do"
)

const frameBuffer = 64

type Service struct {
	mu sync.Mutex

	frames    chan capture.Frame
	streaming bool

	last      flow.Output
	audioDone chan struct{}
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{}, nil
}

var (
	_ capture.Source  = (*Service)(nil)
	_ playback.Player = (*Service)(nil)
)

// Open starts accepting microphone frames from the browser.
func (s *Service) Open(_ context.Context) (<-chan capture.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = make(chan capture.Frame, frameBuffer)
	s.streaming = true

	return s.frames, nil
}

func (s *Service) ContentType() string {
	return "audio/webm"
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		s.streaming = false
		close(s.frames)
		s.frames = nil
	}

	return nil
}

// PushFrame accepts one microphone chunk from the browser. Frames arriving
// while capture is off are dropped.
func (s *Service) PushFrame(data []byte, level float64, dur time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streaming {
		return
	}

	select {
	case s.frames <- capture.Frame{Data: data, Level: level, Dur: dur}:
	default:
	}
}

// Play blocks until the browser confirms the resource ended or ctx cancels.
func (s *Service) Play(ctx context.Context, _ playback.Resource) error {
	s.mu.Lock()
	done := make(chan struct{})
	s.audioDone = done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AudioEnded is the browser's confirmation that the current audio finished.
func (s *Service) AudioEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.audioDone != nil {
		close(s.audioDone)
		s.audioDone = nil
	}
}

// Present records the latest controller output for state polling.
func (s *Service) Present(out flow.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = out
}

// StateView is the JSON shape the frontend polls.
type StateView struct {
	Seq       int64  `json:"seq"`
	State     string `json:"state"`
	Video     string `json:"video,omitempty"`
	Indicator string `json:"indicator"`
	AudioKind string `json:"audioKind,omitempty"`
	AudioRef  string `json:"audioRef,omitempty"`
	AudioData string `json:"audioData,omitempty"`
	Notice    string `json:"notice,omitempty"`
}

func (s *Service) State() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := StateView{
		Seq:       s.last.Seq,
		State:     string(s.last.State),
		Video:     s.last.Video,
		Indicator: string(s.last.Indicator),
		Notice:    s.last.Notice,
	}

	if s.last.Audio != nil {
		view.AudioKind = string(s.last.Audio.Kind)
		view.AudioRef = s.last.Audio.Ref
		if len(s.last.Audio.Data) > 0 {
			view.AudioData = base64.StdEncoding.EncodeToString(s.last.Audio.Data)
		}
	}

	return view
}
