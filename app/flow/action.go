package flow

import "santacall/app/agenda"

// nextAction is the single decision procedure applied after every "what comes
// next" point: play the step's canned audio, run a model turn for its prompt,
// or open the microphone.
type nextAction int

const (
	actionListen nextAction = iota
	actionPlayPredefined
	actionModelTurn
)

func decideNextAction(step *agenda.Step) nextAction {
	switch {
	case step == nil:
		return actionListen
	case step.Audio != "" && step.Prompt == "":
		return actionPlayPredefined
	case step.Prompt != "":
		return actionModelTurn
	default:
		return actionListen
	}
}
