package playback

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"santacall/app/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	finish chan error
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{finish: make(chan error, 1)}
}

func (p *fakePlayer) Play(ctx context.Context, _ Resource) error {
	select {
	case err := <-p.finish:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func unlockedCapability() *media.Capability {
	c := media.NewCapability()
	c.Unlock()
	return c
}

func waitForEnded(t *testing.T, ended *atomic.Int32, want int32) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for ended.Load() != want {
		select {
		case <-deadline:
			t.Fatalf("ended fired %d times, want %d", ended.Load(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEndedFiresOnceOnNaturalFinish(t *testing.T) {
	player := newFakePlayer()
	sess := NewSession(unlockedCapability(), player)

	var ended atomic.Int32

	require.NoError(t, sess.Play(context.Background(), Resource{Ref: "a.mp3"}, func() {
		ended.Add(1)
	}))

	player.finish <- nil
	waitForEnded(t, &ended, 1)

	// A later stop must not fire the signal again.
	sess.Stop()
	assert.Equal(t, int32(1), ended.Load())
}

func TestEndedFiresOnStop(t *testing.T) {
	sess := NewSession(unlockedCapability(), newFakePlayer())

	var ended atomic.Int32
	require.NoError(t, sess.Play(context.Background(), Resource{Ref: "a.mp3"}, func() {
		ended.Add(1)
	}))
	assert.True(t, sess.Active())

	sess.Stop()
	waitForEnded(t, &ended, 1)
}

func TestPlaybackErrorDegradesToEnded(t *testing.T) {
	player := newFakePlayer()
	sess := NewSession(unlockedCapability(), player)

	var ended atomic.Int32
	require.NoError(t, sess.Play(context.Background(), Resource{Data: []byte("junk")}, func() {
		ended.Add(1)
	}))

	player.finish <- errors.New("decode failed")
	waitForEnded(t, &ended, 1)
}

func TestPlayStopsPreviousPlayback(t *testing.T) {
	capability := unlockedCapability()
	player := newFakePlayer()
	sess := NewSession(capability, player)

	var firstEnded, secondEnded atomic.Int32

	require.NoError(t, sess.Play(context.Background(), Resource{Ref: "first.mp3"}, func() {
		firstEnded.Add(1)
	}))
	require.NoError(t, sess.Play(context.Background(), Resource{Ref: "second.mp3"}, func() {
		secondEnded.Add(1)
	}))

	waitForEnded(t, &firstEnded, 1)
	assert.Equal(t, int32(0), secondEnded.Load())

	player.finish <- nil
	waitForEnded(t, &secondEnded, 1)

	sess.Stop()
	assert.Empty(t, capability.Owner())
}

func TestPlayRequiresUnlockedDevice(t *testing.T) {
	sess := NewSession(media.NewCapability(), newFakePlayer())

	err := sess.Play(context.Background(), Resource{Ref: "a.mp3"}, func() {})
	assert.ErrorIs(t, err, media.ErrDevice)
}
