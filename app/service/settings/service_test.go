package settings

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"santacall/app/config"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	original := filePath
	filePath = filepath.Join(t.TempDir(), "settings.json")
	t.Cleanup(func() { filePath = original })

	di := do.New()
	do.ProvideValue(di, &config.Config{
		ElevenLabs: config.ElevenLabs{
			VoiceID:    "default-voice",
			Stability:  0.5,
			Similarity: 0.75,
		},
	})

	svc, err := New(di)
	require.NoError(t, err)
	return svc
}

func TestGetFallsBackToConfigDefaults(t *testing.T) {
	svc := newTestService(t)

	got := svc.Get()
	assert.Equal(t, "default-voice", got.VoiceID)
	assert.Equal(t, 0.5, got.Stability)
	assert.Equal(t, 0.75, got.Similarity)
}

func TestUpdateOverridesAndPersists(t *testing.T) {
	svc := newTestService(t)

	updated, err := svc.Update(Settings{VoiceID: "custom-voice", Stability: 0.9})
	require.NoError(t, err)

	assert.Equal(t, "custom-voice", updated.VoiceID)
	assert.Equal(t, 0.9, updated.Stability)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.75, updated.Similarity)

	// A fresh service picks the overrides up from disk.
	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "custom-voice")

	reloaded := &Service{cfg: svc.cfg}
	require.NoError(t, reloaded.load())
	assert.Equal(t, "custom-voice", reloaded.Get().VoiceID)
	assert.Equal(t, 0.9, reloaded.Get().Stability)
}

func TestConcurrentUpdatesLeaveFileMatchingState(t *testing.T) {
	svc := newTestService(t)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Update(Settings{Stability: float64(n) / 10})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Whatever update landed last, the file must agree with memory.
	reloaded := &Service{cfg: svc.cfg}
	require.NoError(t, reloaded.load())
	assert.Equal(t, svc.Get(), reloaded.Get())
}

func TestPartialUpdateKeepsPreviousOverrides(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(Settings{VoiceID: "custom-voice"})
	require.NoError(t, err)

	updated, err := svc.Update(Settings{Similarity: 0.2})
	require.NoError(t, err)

	assert.Equal(t, "custom-voice", updated.VoiceID)
	assert.Equal(t, 0.2, updated.Similarity)
}
