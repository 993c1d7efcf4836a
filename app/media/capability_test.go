package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRequiresUnlock(t *testing.T) {
	c := NewCapability()

	_, err := c.Acquire("capture")
	assert.ErrorIs(t, err, ErrLocked)

	c.Unlock()
	assert.True(t, c.Unlocked())

	release, err := c.Acquire("capture")
	require.NoError(t, err)
	assert.Equal(t, "capture", c.Owner())

	release()
	assert.Empty(t, c.Owner())
}

func TestAcquireIsExclusive(t *testing.T) {
	c := NewCapability()
	c.Unlock()

	release, err := c.Acquire("capture")
	require.NoError(t, err)

	_, err = c.Acquire("playback")
	assert.ErrorIs(t, err, ErrAcquired)

	release()

	release2, err := c.Acquire("playback")
	require.NoError(t, err)
	defer release2()
	assert.Equal(t, "playback", c.Owner())
}

func TestReleaseIsIdempotent(t *testing.T) {
	c := NewCapability()
	c.Unlock()

	release, err := c.Acquire("capture")
	require.NoError(t, err)

	release()

	// A stale second release must not free a newer owner.
	_, err = c.Acquire("playback")
	require.NoError(t, err)

	release()
	assert.Equal(t, "playback", c.Owner())
}
