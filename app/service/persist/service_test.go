package persist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"santacall/app/flow"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	original := slotPath
	slotPath = filepath.Join(t.TempDir(), "call_session.json")
	t.Cleanup(func() { slotPath = original })

	svc, err := New(do.New())
	require.NoError(t, err)
	return svc
}

func testSnapshot() flow.Snapshot {
	return flow.Snapshot{
		SessionID:    "abc",
		AgendaIndex:  3,
		History:      []flow.Turn{{Speaker: flow.SpeakerUser, Text: "hi"}},
		Facts:        flow.Facts{Names: []string{"Ana"}},
		Summary:      "hello so far",
		PlayedVideos: []string{"intro"},
		CallStart:    time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Save(testSnapshot()))

	loaded, ok := svc.Load()
	require.True(t, ok)
	assert.Equal(t, testSnapshot(), loaded)
}

func TestLoadMissingSlot(t *testing.T) {
	svc := newTestService(t)

	_, ok := svc.Load()
	assert.False(t, ok)
}

func TestStaleSnapshotIsDiscarded(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Save(testSnapshot()))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok := svc.Load()
	assert.False(t, ok)

	// The stale file is gone, not just skipped.
	_, err := os.Stat(slotPath)
	assert.True(t, os.IsNotExist(err))
}

func TestUnparsableSnapshotIsDiscarded(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, os.WriteFile(slotPath, []byte("{nope"), 0644))

	_, ok := svc.Load()
	assert.False(t, ok)

	_, err := os.Stat(slotPath)
	assert.True(t, os.IsNotExist(err))
}

func TestClearIsIdempotent(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Save(testSnapshot()))
	require.NoError(t, svc.Clear())
	require.NoError(t, svc.Clear())

	_, ok := svc.Load()
	assert.False(t, ok)
}
