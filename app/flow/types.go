package flow

// State is the current position of the call lifecycle machine.
type State string

const (
	StateIdle            State = "idle"
	StateCalling         State = "calling"
	StateIntro           State = "intro"
	StateListening       State = "listening"
	StateProcessing      State = "processing"
	StateSpeaking        State = "speaking"
	StatePredefinedAudio State = "playing_predefined_audio"
	StateSpecialVideo    State = "playing_special_video"
	StateEnded           State = "ended"
)

// Indicator is the status shown to the user by the presentation layer.
type Indicator string

const (
	IndicatorIdle       Indicator = "idle"
	IndicatorListening  Indicator = "listening"
	IndicatorProcessing Indicator = "processing"
	IndicatorSpeaking   Indicator = "speaking"
)

type AudioKind string

const (
	AudioRingtone   AudioKind = "ringtone"
	AudioPredefined AudioKind = "predefined"
	AudioTTS        AudioKind = "tts"
)

// AudioCue asks the playback side to start one audio resource: either a
// static asset (Ref) or freshly synthesized bytes (Data).
type AudioCue struct {
	Kind AudioKind
	Ref  string
	Data []byte
}

// Output is the presentation state emitted after every transition. Listeners
// receive outputs in Seq order.
type Output struct {
	Seq       int64
	State     State
	Video     string
	Indicator Indicator
	Audio     *AudioCue
	// Notice carries a user-visible, non-fatal error message.
	Notice string
}

// videoListening is the idle avatar loop shown whenever the machine waits on
// the user or on a vendor.
const videoListening = "listening"

const ringtoneRef = "ringtone.mp3"

func indicatorFor(state State) Indicator {
	switch state {
	case StateListening:
		return IndicatorListening
	case StateProcessing:
		return IndicatorProcessing
	case StateIdle, StateEnded:
		return IndicatorIdle
	default:
		return IndicatorSpeaking
	}
}
