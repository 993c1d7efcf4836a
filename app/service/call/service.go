// Package call runs one voice call end to end: it feeds controller outputs
// into the capture/playback sessions, transcribes finished utterances and
// snapshots the session in the background.
package call

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"santacall/app/agenda"
	"santacall/app/capture"
	"santacall/app/config"
	"santacall/app/flow"
	"santacall/app/media"
	"santacall/app/playback"
	"santacall/app/service/bridge"
	"santacall/app/service/persist"
	"santacall/app/service/queue"
	"santacall/app/service/vendor"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const outputBuffer = 64

type Service struct {
	cfg        *config.Config
	bridgeSvc  *bridge.Service
	vendorSvc  *vendor.Service
	persistSvc *persist.Service
	queueSvc   *queue.Service

	capability   *media.Capability
	captureSess  *capture.Session
	playbackSess *playback.Session
	controller   *flow.Controller

	outputs   chan flow.Output
	snapshots chan flow.Snapshot

	mu     sync.Mutex
	runCtx context.Context
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	bridgeSvc := do.MustInvoke[*bridge.Service](di)
	vendorSvc := do.MustInvoke[*vendor.Service](di)
	persistSvc := do.MustInvoke[*persist.Service](di)
	queueSvc := do.MustInvoke[*queue.Service](di)

	capability := media.NewCapability()

	s := &Service{
		cfg:        cfg,
		bridgeSvc:  bridgeSvc,
		vendorSvc:  vendorSvc,
		persistSvc: persistSvc,
		queueSvc:   queueSvc,

		capability:   capability,
		captureSess:  capture.NewSession(capability, bridgeSvc, queueSvc.Add),
		playbackSess: playback.NewSession(capability, bridgeSvc),
		controller: flow.New(agenda.Santa(), vendorSvc,
			flow.WithMaxCallDuration(cfg.Call.MaxDuration)),

		outputs:   make(chan flow.Output, outputBuffer),
		snapshots: make(chan flow.Snapshot, 8),
	}

	// Listeners run under the controller lock: only hand off, never act.
	s.controller.Subscribe(func(out flow.Output) {
		select {
		case s.outputs <- out:
		default:
			slog.Error("Output channel is full, dropping output", "seq", out.Seq)
		}
	})
	s.controller.OnTurnDone(func(snap flow.Snapshot) {
		select {
		case s.snapshots <- snap:
		default:
		}
	})

	return s, nil
}

func (s *Service) Run(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.runOutputs(ctx)
		return nil
	})
	g.Go(func() error {
		s.runUtterances(ctx)
		return nil
	})

	_ = g.Wait()

	s.captureSess.Stop()
	s.playbackSess.Stop()
}

// Start begins a call, resuming from a fresh persisted snapshot when one
// exists.
func (s *Service) Start() {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()

	if ctx == nil {
		slog.Warn("Start ignored, engine is not running")
		return
	}

	if snap, ok := s.persistSvc.Load(); ok {
		s.controller.Resume(ctx, snap)
		return
	}

	s.controller.StartCall(ctx)
}

func (s *Service) End() {
	s.controller.EndCall()
}

// Unlock marks the audio device usable; the proxy calls it from the
// user-gesture endpoint.
func (s *Service) Unlock() {
	s.capability.Unlock()
}

// VideoEnded is the browser's report that the named video finished.
func (s *Service) VideoEnded(name string) {
	s.controller.VideoEnded(name)
}

func (s *Service) State() flow.State {
	return s.controller.State()
}

// runOutputs applies each controller output to the audio sessions and the
// presentation bridge, and persists snapshots in the background.
func (s *Service) runOutputs(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Call.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case out := <-s.outputs:
			s.applyOutput(ctx, out)

		case snap := <-s.snapshots:
			if err := s.persistSvc.Save(snap); err != nil {
				slog.Warn("Failed to persist session snapshot", "error", err)
			}

		case <-ticker.C:
			state := s.controller.State()
			if state == flow.StateIdle || state == flow.StateEnded {
				continue
			}
			if err := s.persistSvc.Save(s.controller.Snapshot()); err != nil {
				slog.Warn("Failed to persist session snapshot", "error", err)
			}
		}
	}
}

func (s *Service) applyOutput(ctx context.Context, out flow.Output) {
	s.bridgeSvc.Present(out)

	switch {
	case out.Audio != nil:
		s.captureSess.Stop()
		s.playAudio(ctx, out.Audio)

	case out.State == flow.StateListening:
		s.playbackSess.Stop()
		if err := s.captureSess.Start(ctx); err != nil {
			slog.Warn("Failed to start capture", "error", err)
		}

	case out.State == flow.StateEnded:
		s.captureSess.Stop()
		s.playbackSess.Stop()
		if err := s.persistSvc.Clear(); err != nil {
			slog.Warn("Failed to clear session snapshot", "error", err)
		}

	default:
		// Processing and video states: mic off, no audio of our own.
		s.captureSess.Stop()
	}
}

func (s *Service) playAudio(ctx context.Context, cue *flow.AudioCue) {
	res := playback.Resource{Ref: cue.Ref, Data: cue.Data}

	var cancel context.CancelFunc
	if cue.Kind == flow.AudioRingtone {
		// The ringtone never waits on the browser longer than its fixed length.
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Call.RingtoneDuration)
	}

	onEnded := func() {
		if cancel != nil {
			cancel()
		}

		switch cue.Kind {
		case flow.AudioRingtone:
			s.controller.RingtoneEnded()
		case flow.AudioPredefined:
			s.controller.AudioEnded(flow.AudioPredefined)
		case flow.AudioTTS:
			s.controller.AudioEnded(flow.AudioTTS)
		}
	}

	if err := s.playbackSess.Play(ctx, res, onEnded); err != nil {
		slog.Warn("Failed to start playback, treating as ended",
			"resource", res.String(),
			"error", err)
		onEnded()
	}
}

// runUtterances transcribes finished utterances and feeds the text into the
// flow. Empty transcriptions keep the machine listening.
func (s *Service) runUtterances(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case utterance, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}

			if s.controller.State() != flow.StateListening {
				slog.Debug("Dropping utterance, call is not listening",
					"state", s.controller.State())
				continue
			}

			start := time.Now()

			text, err := s.vendorSvc.Transcribe(ctx, utterance.Data, utterance.ContentType)
			if err != nil {
				slog.Warn("Transcription failed", "error", err)
				continue
			}

			if text == "" {
				slog.Debug("Empty transcription, still listening")
				continue
			}

			slog.Info("Utterance transcribed",
				"text", text,
				"duration", time.Since(start))

			s.controller.UserUtterance(text)
		}
	}
}
