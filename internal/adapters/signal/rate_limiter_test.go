package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJoinLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewJoinLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("u"))
	assert.True(t, rl.Allow("u"))
	assert.False(t, rl.Allow("u"))
	assert.True(t, rl.Allow("other"))

	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("u"))
}

func TestNilJoinLimiterAllows(t *testing.T) {
	var rl *JoinLimiter
	assert.True(t, rl.Allow("u"))
	assert.True(t, NewJoinLimiter(0, time.Second).Allow("u"))
}
