package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClock_AdvanceRunsDueTimersInOrder(t *testing.T) {
	c := NewFakeClock()
	var order []string

	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	stopped := c.AfterFunc(time.Second, func() { order = append(order, "never") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Zero(t, c.Pending())
}

func TestFakeClock_ChainedTimers(t *testing.T) {
	c := NewFakeClock()
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		if ticks < 3 {
			c.AfterFunc(time.Second, tick)
		}
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	assert.Equal(t, 3, ticks)
}

func TestSetupTestRedis(t *testing.T) {
	client, _ := SetupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute).Err())
	v, err := client.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
