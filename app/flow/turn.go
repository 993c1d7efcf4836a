package flow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"santacall/app/agenda"
)

// autoUtterance is sent when a turn starts without a captured utterance
// (the persona speaks first on the new topic).
const autoUtterance = "(the call just reached this topic - greet or continue naturally, the child has not spoken yet)"

// continueUtterance replaces the original utterance when a full-turn deadline
// forces a retry.
const continueUtterance = "(the child is waiting - please continue the conversation)"

const noticeTurnFailed = "Santa couldn't hear you because of a connection problem to the North Pole. Please try again!"

// turnRequest freezes everything a model turn needs at the moment it starts.
// The agenda pointer may advance while the request is in flight; queued media
// and the speaking voice always belong to this snapshot, never to whatever
// step is current when the response lands.
type turnRequest struct {
	gen       uint64
	stepID    string
	prompt    string
	voice     string
	video     string
	utterance string
	auto      bool
	history   []Turn
	summary   string
	facts     Facts
}

// startModelTurn enters Processing and dispatches exactly one chat round-trip.
// A turn already in flight rejects the new entry outright; nothing is queued.
// Callers hold the lock.
func (c *Controller) startModelTurn(step *agenda.Step, utterance string, auto bool) {
	if c.turnActive {
		slog.Warn("Model turn already in flight, rejecting", "step", step.ID)
		return
	}

	if auto || utterance == "" {
		// A stashed utterance (recorded while predefined content played)
		// takes precedence over the auto placeholder.
		if pending := c.sess.pendingUtterance; pending != "" {
			utterance = pending
			auto = false
		} else {
			utterance = autoUtterance
			auto = true
		}
	}

	c.turnGen++
	c.turnActive = true

	req := turnRequest{
		gen:       c.turnGen,
		stepID:    step.ID,
		prompt:    step.Prompt,
		voice:     step.VoiceOrDefault(),
		video:     step.Video,
		utterance: utterance,
		auto:      auto,
		history:   c.sess.history.Turns(),
		summary:   c.sess.summary,
		facts:     c.sess.facts,
	}

	ctx, cancel := context.WithCancel(c.baseCtx)
	c.turnCancel = cancel

	c.state = StateProcessing
	c.emit(videoListening, nil, "")

	go c.runTurn(ctx, req)
}

// runTurn executes the remote round-trip outside the lock. Each attempt is
// bounded by the full-turn deadline; a deadline overrun retries with the
// continuation placeholder instead of the original utterance, at most
// turnRetries times.
func (c *Controller) runTurn(ctx context.Context, req turnRequest) {
	utterance := req.utterance

	var lastErr error

	for attempt := 0; attempt <= c.turnRetries; attempt++ {
		if attempt > 0 {
			utterance = continueUtterance
			slog.Info("Turn deadline exceeded, retrying with continuation placeholder",
				"step", req.stepID,
				"attempt", attempt)
		}

		reply, audio, err := c.attemptTurn(ctx, req, utterance)
		if err == nil {
			c.turnSucceeded(req, reply, audio)
			return
		}

		if ctx.Err() != nil {
			// Cancelled: the late result must not mutate state.
			slog.Debug("Model turn cancelled", "step", req.stepID)
			return
		}

		lastErr = err
		if !errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	c.turnFailed(req, lastErr)
}

func (c *Controller) attemptTurn(ctx context.Context, req turnRequest, utterance string) (*ConverseReply, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.turnDeadline)
	defer cancel()

	start := time.Now()

	reply, err := c.vendor.Converse(ctx, ConverseRequest{
		Utterance: utterance,
		History:   req.history,
		Summary:   req.summary,
		StepID:    req.stepID,
		Prompt:    req.prompt,
		Facts:     req.facts,
	})
	if err != nil {
		return nil, nil, err
	}

	audio, err := c.vendor.Synthesize(ctx, reply.Message, req.voice)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Model turn complete",
		"step", req.stepID,
		"duration", time.Since(start))

	return reply, audio, nil
}

// turnSucceeded folds the vendor reply into the session and moves to
// Speaking. Results from superseded or cancelled turns are discarded.
func (c *Controller) turnSucceeded(req turnRequest, reply *ConverseReply, audio []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.gen != c.turnGen || !c.turnActive || c.state != StateProcessing {
		slog.Debug("Discarding stale model response", "step", req.stepID)
		return
	}

	c.turnActive = false
	c.turnCancel = nil

	if !req.auto {
		c.sess.history.Add(SpeakerUser, req.utterance)
	}
	c.sess.history.Add(SpeakerPersona, reply.Message)
	c.sess.pendingUtterance = ""

	if reply.Summary != "" {
		c.sess.summary = reply.Summary
	}
	if reply.Facts != nil {
		c.sess.facts.Merge(*reply.Facts)
	}

	// Absent flag means "advance"; the vendor must say no explicitly.
	c.sess.readyForNext = reply.ReadyForNext == nil || *reply.ReadyForNext

	if req.video != "" {
		if reply.SkipVideo {
			c.sess.markVideoPlayed(req.video)
		} else {
			c.sess.queueVideo(req.video)
		}
	}

	c.state = StateSpeaking
	c.emit(req.voice, &AudioCue{Kind: AudioTTS, Data: audio}, "")

	if c.onTurnDone != nil {
		c.onTurnDone(c.sess.snapshot())
	}
}

// turnFailed surfaces a user-visible error and returns to listening; the
// agenda position is untouched.
func (c *Controller) turnFailed(req turnRequest, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.gen != c.turnGen || !c.turnActive || c.state != StateProcessing {
		return
	}

	c.turnActive = false
	c.turnCancel = nil

	slog.Error("Model turn failed",
		"step", req.stepID,
		"error", err)

	c.enterListening(noticeTurnFailed)
}
