package flow

import (
	"testing"

	"santacall/app/agenda"

	"github.com/stretchr/testify/assert"
)

func TestDecideNextAction(t *testing.T) {
	tests := []struct {
		name string
		step *agenda.Step
		want nextAction
	}{
		{
			name: "nil step listens",
			step: nil,
			want: actionListen,
		},
		{
			name: "audio without prompt plays predefined",
			step: &agenda.Step{ID: "a", Audio: "a.mp3"},
			want: actionPlayPredefined,
		},
		{
			name: "prompt starts a model turn",
			step: &agenda.Step{ID: "b", Prompt: "talk"},
			want: actionModelTurn,
		},
		{
			name: "audio and prompt prefers the model turn",
			step: &agenda.Step{ID: "c", Audio: "a.mp3", Prompt: "talk"},
			want: actionModelTurn,
		},
		{
			name: "bare step listens",
			step: &agenda.Step{ID: "d"},
			want: actionListen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decideNextAction(tt.step))
		})
	}
}
