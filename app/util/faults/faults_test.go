package faults

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransientClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport failures retry", Transport(errors.New("conn refused")), true},
		{"server-side vendor failures retry", Vendor(500, "boom"), true},
		{"rate limiting retries", Vendor(429, "slow down"), true},
		{"client errors are permanent", Vendor(400, "bad request"), false},
		{"auth errors are permanent", Vendor(401, "no key"), false},
		{"malformed responses retry", Malformed("empty message"), true},
		{"cancellation never retries", context.Canceled, false},
		{"deadline never retries", context.DeadlineExceeded, false},
		{"unknown errors never retry", errors.New("who knows"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transient(tt.err))
		})
	}
}

func TestTaxonomySentinelsSurviveWrapping(t *testing.T) {
	err := Vendor(503, "unavailable")
	assert.ErrorIs(t, err, ErrVendor)

	var status int
	assert.True(t, statusOf(err, &status))
	assert.Equal(t, 503, status)

	assert.ErrorIs(t, Transport(errors.New("x")), ErrTransport)
	assert.ErrorIs(t, Malformed("x"), ErrMalformed)
}
