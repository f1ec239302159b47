package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllow_PerKeyBuckets(t *testing.T) {
	krl := New(1, 2)

	// Each key gets its own burst.
	assert.True(t, krl.Allow("device-1"))
	assert.True(t, krl.Allow("device-1"))
	assert.False(t, krl.Allow("device-1"))

	assert.True(t, krl.Allow("device-2"))
}

func TestReset(t *testing.T) {
	krl := New(1, 1)

	assert.True(t, krl.Allow("device-1"))
	assert.False(t, krl.Allow("device-1"))

	krl.Reset()
	assert.True(t, krl.Allow("device-1"))
}
