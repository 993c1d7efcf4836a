// Package agenda holds the static, ordered script of conversation steps that
// drives a call. The flow controller walks it front to back; it never edits it.
package agenda

import (
	"github.com/elliotchance/pie/v2"
)

// Voice tags select which avatar/video variant accompanies spoken content.
const (
	VoiceNormal = "speaking_normal"
	VoiceAmused = "speaking_amused"
	VoiceAmazed = "speaking_amazed"
)

type Step struct {
	// ID is the unique key of the step.
	ID string
	// Name is a human-readable label used in logs.
	Name string
	// Prompt is the instruction sent to the chat vendor while this step is
	// active. Empty means the step has no AI turn.
	Prompt string
	// Audio references a pre-recorded asset played instead of synthesizing.
	Audio string
	// Video references a special video (non-looping, own soundtrack) queued
	// after the spoken content.
	Video string
	// NoListen inverts the default: when false (default), the microphone
	// opens once this step's content finishes.
	NoListen bool
	// Looping steps repeat until the call time budget expires.
	Looping bool
	// MultiTurn steps advance only when the vendor signals readiness.
	MultiTurn bool
	// AutoEndCall terminates the call after this step's content.
	AutoEndCall bool
	// Voice selects the speaking avatar variant.
	Voice string
}

// ListenAfter reports whether the microphone should open once the step's
// content finishes.
func (s *Step) ListenAfter() bool {
	return s != nil && !s.NoListen
}

func (s *Step) VoiceOrDefault() string {
	if s == nil || s.Voice == "" {
		return VoiceNormal
	}
	return s.Voice
}

type Agenda struct {
	steps []Step
	// closing is the id of the step the flow jumps to when the time budget
	// runs out on a looping step.
	closing string
}

func New(steps []Step, closingID string) *Agenda {
	return &Agenda{steps: steps, closing: closingID}
}

func (a *Agenda) Len() int {
	return len(a.steps)
}

// StepAt returns the step at index i, or nil when i is out of range.
func (a *Agenda) StepAt(i int) *Step {
	if i < 0 || i >= len(a.steps) {
		return nil
	}
	return &a.steps[i]
}

func (a *Agenda) Find(id string) *Step {
	idx := a.IndexOf(id)
	if idx < 0 {
		return nil
	}
	return &a.steps[idx]
}

func (a *Agenda) IndexOf(id string) int {
	return pie.FindFirstUsing(a.steps, func(s Step) bool {
		return s.ID == id
	})
}

func (a *Agenda) ClosingIndex() int {
	return a.IndexOf(a.closing)
}

// SpecialVideos lists every special-video reference named by the script.
func (a *Agenda) SpecialVideos() []string {
	videos := pie.Map(a.steps, func(s Step) string {
		return s.Video
	})

	return pie.Unique(pie.Filter(videos, func(v string) bool {
		return v != ""
	}))
}
