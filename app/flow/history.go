package flow

const historySize = 20

const (
	SpeakerUser    = "user"
	SpeakerPersona = "santa"
)

type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// History is the ordered record of spoken turns, capped to the most recent
// historySize entries to bound the chat-context payload.
type History struct {
	turns []Turn
}

func (h *History) Add(speaker, text string) {
	turn := Turn{Speaker: speaker, Text: text}

	if len(h.turns) >= historySize {
		h.turns = append(h.turns[len(h.turns)-historySize+1:], turn)
	} else {
		h.turns = append(h.turns, turn)
	}
}

func (h *History) Len() int {
	return len(h.turns)
}

// Turns returns a copy safe to hand to a vendor call running outside the
// controller lock.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Replace(turns []Turn) {
	h.turns = nil
	for _, t := range turns {
		h.Add(t.Speaker, t.Text)
	}
}
