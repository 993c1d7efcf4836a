package flow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCapsAtMostRecentTurns(t *testing.T) {
	var h History

	for i := 0; i < historySize+7; i++ {
		h.Add(SpeakerUser, fmt.Sprintf("turn %d", i))
	}

	turns := h.Turns()
	require.Len(t, turns, historySize)
	assert.Equal(t, "turn 7", turns[0].Text)
	assert.Equal(t, fmt.Sprintf("turn %d", historySize+6), turns[len(turns)-1].Text)
}

func TestHistoryTurnsReturnsCopy(t *testing.T) {
	var h History
	h.Add(SpeakerUser, "hello")

	turns := h.Turns()
	turns[0].Text = "mutated"

	assert.Equal(t, "hello", h.Turns()[0].Text)
}

func TestHistoryReplaceReappliesCap(t *testing.T) {
	long := make([]Turn, historySize+5)
	for i := range long {
		long[i] = Turn{Speaker: SpeakerPersona, Text: fmt.Sprintf("t%d", i)}
	}

	var h History
	h.Replace(long)

	assert.Equal(t, historySize, h.Len())
	assert.Equal(t, "t5", h.Turns()[0].Text)
}

func TestFactsMergeKeepsOmittedFields(t *testing.T) {
	f := Facts{Names: []string{"Ana"}, Gender: "girl"}

	f.Merge(Facts{Ages: []int{7}, Count: 2})

	assert.Equal(t, []string{"Ana"}, f.Names)
	assert.Equal(t, "girl", f.Gender)
	assert.Equal(t, []int{7}, f.Ages)
	assert.Equal(t, 2, f.Count)

	f.Merge(Facts{Names: []string{"Ana", "Tom"}})
	assert.Equal(t, []string{"Ana", "Tom"}, f.Names)
	assert.Equal(t, []int{7}, f.Ages)
}

func TestFactsEmpty(t *testing.T) {
	var f Facts
	assert.True(t, f.Empty())

	f.Merge(Facts{Count: 1})
	assert.False(t, f.Empty())
}
