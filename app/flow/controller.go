// Package flow implements the call lifecycle state machine: it owns the
// agenda position, decides every transition, dispatches remote inference
// turns and emits the presentation state the rendering/audio layers act on.
package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"santacall/app/agenda"
)

const (
	defaultMaxCallDuration = 5 * time.Minute
	defaultTurnDeadline    = 25 * time.Second
	defaultTurnRetries     = 2
)

type Controller struct {
	agenda *agenda.Agenda
	vendor Vendor

	now          func() time.Time
	maxCall      time.Duration
	turnDeadline time.Duration
	turnRetries  int

	mu         sync.Mutex
	state      State
	sess       *callSession
	seq        int64
	baseCtx    context.Context
	turnGen    uint64
	turnActive bool
	turnCancel context.CancelFunc
	listeners  []func(Output)
	onTurnDone func(Snapshot)
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithMaxCallDuration(d time.Duration) Option {
	return func(c *Controller) { c.maxCall = d }
}

func WithTurnDeadline(d time.Duration) Option {
	return func(c *Controller) { c.turnDeadline = d }
}

func New(script *agenda.Agenda, vendor Vendor, opts ...Option) *Controller {
	c := &Controller{
		agenda:       script,
		vendor:       vendor,
		now:          time.Now,
		maxCall:      defaultMaxCallDuration,
		turnDeadline: defaultTurnDeadline,
		turnRetries:  defaultTurnRetries,
		state:        StateIdle,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Subscribe registers a presentation listener. Listeners run under the
// controller lock and must not dispatch events synchronously; hand outputs to
// your own goroutine.
func (c *Controller) Subscribe(fn func(Output)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, fn)
}

// OnTurnDone registers the callback invoked with a fresh snapshot after every
// completed model turn.
func (c *Controller) OnTurnDone(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onTurnDone = fn
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Controller) AgendaIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return 0
	}
	return c.sess.agendaIndex
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return Snapshot{}
	}
	return c.sess.snapshot()
}

// StartCall resets all accumulated state and begins a new call with the
// ringtone. Valid from Idle and Ended only.
func (c *Controller) StartCall(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle && c.state != StateEnded {
		slog.Warn("StartCall ignored", "state", c.state)
		return
	}

	c.baseCtx = ctx
	c.sess = newCallSession(c.now())
	c.state = StateCalling
	c.emit("", &AudioCue{Kind: AudioRingtone, Ref: ringtoneRef}, "")
}

// Resume begins a call from a persisted snapshot instead of agenda position
// zero: the machine goes straight to listening on the saved step.
func (c *Controller) Resume(ctx context.Context, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle && c.state != StateEnded {
		slog.Warn("Resume ignored", "state", c.state)
		return
	}

	c.baseCtx = ctx
	c.sess = newCallSession(c.now())
	c.sess.restore(snap)

	// A slot written against an older script may point past the end of the
	// agenda; an unchecked position would leave the machine on a nil step.
	if c.sess.agendaIndex >= c.agenda.Len() {
		slog.Warn("Snapshot agenda position out of range, clamping",
			"index", c.sess.agendaIndex,
			"len", c.agenda.Len())
		c.sess.agendaIndex = c.agenda.Len() - 1
	}
	if c.sess.agendaIndex < 0 {
		c.sess.agendaIndex = 0
	}

	c.state = StateListening
	c.emit(videoListening, nil, "")

	slog.Info("Call resumed from snapshot",
		"session", c.sess.id,
		"agenda_index", c.sess.agendaIndex)
}

// RingtoneEnded moves from Calling into the intro media.
func (c *Controller) RingtoneEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCalling {
		return
	}

	video := "intro"
	if step := c.agenda.StepAt(0); step != nil && step.Video != "" {
		video = step.Video
	}

	c.state = StateIntro
	c.emit(video, nil, "")
}

// IntroEnded applies the intro step's completion policy.
func (c *Controller) IntroEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.introEnded()
}

func (c *Controller) introEnded() {
	if c.state != StateIntro {
		return
	}

	step := c.currentStep()
	if step.ListenAfter() {
		c.enterListening("")
		return
	}

	c.advanceAndBranch()
}

// UserUtterance records one finished utterance and starts the model turn.
// On multi-turn and looping steps the agenda position stays put; otherwise
// the agenda advances first and the utterance answers the new step's prompt.
func (c *Controller) UserUtterance(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateListening {
		slog.Warn("UserUtterance ignored", "state", c.state)
		return
	}

	c.sess.pendingUtterance = text
	step := c.currentStep()

	if step != nil && (step.MultiTurn || step.Looping) {
		c.startModelTurn(step, text, false)
		return
	}

	c.advance()
	next := c.currentStep()

	switch decideNextAction(next) {
	case actionPlayPredefined:
		// The utterance stays pending and rides along with the next prompt turn.
		c.playPredefined(next)
	default:
		// Even promptless steps send the utterance: the model keeps the
		// conversation going from the raw exchange.
		c.startModelTurn(next, text, false)
	}
}

// AudioEnded handles both predefined-audio and synthesized-speech completion.
func (c *Controller) AudioEnded(kind AudioKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == StatePredefinedAudio && kind == AudioPredefined:
		step := c.currentStep()
		if step != nil && step.Video != "" {
			c.sess.queueVideo(step.Video)
		}
		c.afterContentEnded()
	case c.state == StateSpeaking && kind == AudioTTS:
		c.afterContentEnded()
	default:
		slog.Debug("AudioEnded ignored", "state", c.state, "kind", kind)
	}
}

// VideoEnded handles special-video completion (and tolerates the intro video
// being reported through the same path).
func (c *Controller) VideoEnded(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIntro {
		c.introEnded()
		return
	}

	if c.state != StateSpecialVideo {
		slog.Debug("VideoEnded ignored", "state", c.state, "video", name)
		return
	}

	if video, ok := c.sess.dequeueVideo(); ok {
		c.state = StateSpecialVideo
		c.emit(video, nil, "")
		return
	}

	c.afterContentEnded()
}

// EndCall cancels any in-flight remote call and terminates. Calling it twice
// produces the same terminal state and no duplicate side effects.
func (c *Controller) EndCall() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateEnded || c.state == StateIdle {
		return
	}

	c.cancelTurn()
	c.state = StateEnded
	c.emit("", nil, "")
}

// afterContentEnded is the shared "what comes after this step" decision used
// once spoken content or a special video finishes. Pending videos drain
// strictly first.
func (c *Controller) afterContentEnded() {
	if video, ok := c.sess.dequeueVideo(); ok {
		c.state = StateSpecialVideo
		c.emit(video, nil, "")
		return
	}

	step := c.currentStep()
	if step == nil {
		c.enterListening("")
		return
	}

	if step.AutoEndCall {
		c.cancelTurn()
		c.state = StateEnded
		c.emit("", nil, "")
		return
	}

	if step.Looping && c.sess.elapsed(c.now()) >= c.maxCall {
		c.jumpToClosing()
		return
	}

	if step.Looping {
		c.sess.readyForNext = true
		c.enterListening("")
		return
	}

	if step.MultiTurn {
		if c.sess.readyForNext {
			c.advanceAndBranch()
			return
		}
		c.sess.readyForNext = true
		c.enterListening("")
		return
	}

	if step.ListenAfter() {
		c.sess.readyForNext = true
		c.enterListening("")
		return
	}

	if c.sess.readyForNext {
		c.advanceAndBranch()
		return
	}

	c.sess.readyForNext = true
	c.enterListening("")
}

// advanceAndBranch moves the agenda forward and enters whatever the new step
// needs. Model turns started here are auto-initiated: no user utterance.
func (c *Controller) advanceAndBranch() {
	c.advance()
	c.branchInto(c.currentStep())
}

func (c *Controller) branchInto(step *agenda.Step) {
	switch decideNextAction(step) {
	case actionPlayPredefined:
		c.playPredefined(step)
	case actionModelTurn:
		c.startModelTurn(step, "", true)
	default:
		c.enterListening("")
	}
}

func (c *Controller) advance() {
	if c.sess.agendaIndex < c.agenda.Len()-1 {
		c.sess.agendaIndex++
		slog.Info("Agenda advanced",
			"index", c.sess.agendaIndex,
			"step", c.currentStep().ID)
	}
}

// jumpToClosing is the single forward jump allowed outside normal
// advancement: the time budget ran out on a looping step. The machine goes
// back to listening on the closing step; the next utterance drives the
// goodbye turn.
func (c *Controller) jumpToClosing() {
	idx := c.agenda.ClosingIndex()
	if idx > c.sess.agendaIndex {
		c.sess.agendaIndex = idx
		slog.Info("Time budget exhausted, jumping to closing step", "index", idx)
	}
	c.enterListening("")
}

func (c *Controller) playPredefined(step *agenda.Step) {
	c.state = StatePredefinedAudio
	c.emit(step.VoiceOrDefault(), &AudioCue{Kind: AudioPredefined, Ref: step.Audio}, "")
}

func (c *Controller) enterListening(notice string) {
	c.state = StateListening
	c.emit(videoListening, nil, notice)
}

func (c *Controller) currentStep() *agenda.Step {
	return c.agenda.StepAt(c.sess.agendaIndex)
}

func (c *Controller) cancelTurn() {
	if c.turnCancel != nil {
		c.turnCancel()
		c.turnCancel = nil
	}
	c.turnActive = false
}

// emit publishes the presentation state for the transition just taken.
// Callers hold the lock.
func (c *Controller) emit(video string, audio *AudioCue, notice string) {
	c.seq++
	out := Output{
		Seq:       c.seq,
		State:     c.state,
		Video:     video,
		Indicator: indicatorFor(c.state),
		Audio:     audio,
		Notice:    notice,
	}

	for _, fn := range c.listeners {
		fn(out)
	}
}
