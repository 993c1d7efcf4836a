package flow

import "context"

// ConverseRequest is one chat turn sent to the vendor. StepID and Prompt are
// captured from the step that originated the turn, not from the live agenda
// pointer.
type ConverseRequest struct {
	Utterance string
	History   []Turn
	Summary   string
	StepID    string
	Prompt    string
	Facts     Facts
}

type ConverseReply struct {
	Message string `json:"message"`
	Summary string `json:"summary"`
	// ReadyForNext is nil when the vendor omitted the flag; the controller
	// treats that as "advance".
	ReadyForNext *bool  `json:"readyForNext,omitempty"`
	SkipVideo    bool   `json:"skipVideo"`
	Facts        *Facts `json:"facts,omitempty"`
}

// Vendor is the remote-inference boundary the controller suspends on. Both
// operations must honor ctx cancellation.
type Vendor interface {
	Converse(ctx context.Context, req ConverseRequest) (*ConverseReply, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}
