// Package testutil provides testing utilities shared by the eventdesk packages.
package testutil

import (
	"context"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/target/eventdesk/internal/ports"
)

// TestingTB is an interface that covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Skip(args ...interface{})
	Skipf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
	Cleanup(func())
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

// SetupTestRedis returns a Redis client for tests.
// When TEST_REDIS_ADDR is set the client targets that server (DB from TEST_REDIS_DB,
// default 1) and the DB is flushed first; otherwise an in-process miniredis is started.
// The returned *miniredis.Miniredis is nil for a real server.
func SetupTestRedis(t TestingTB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		return setupRealRedis(t, addr), nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client: %v", cerr)
		}
		mr.Close()
	})
	return client, mr
}

func setupRealRedis(t TestingTB, addr string) *redis.Client {
	t.Helper()

	db := 1
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			db = i
		}
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client after ping error: %v", cerr)
		}
		if requireRedis() {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client: %v", cerr)
		}
	})
	return client
}

// FakeClock is a manually advanced ports.Clock.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers map[int]*fakeTimer
}

var _ ports.Clock = (*FakeClock)(nil)

type fakeTimer struct {
	clock *FakeClock
	id    int
	at    time.Duration
	fn    func()
}

// NewFakeClock returns a FakeClock at offset zero.
func NewFakeClock() *FakeClock {
	return &FakeClock{timers: make(map[int]*fakeTimer)}
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, id: c.seq, at: c.now + d, fn: f}
	c.timers[t.id] = t
	return t
}

// Pending returns the number of scheduled, unfired timers.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves the clock forward by d, running due callbacks synchronously in
// deadline order. Callbacks scheduled by a callback run if they fall due within d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		delete(c.timers, next.id)
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

func (c *FakeClock) nextDueLocked(target time.Duration) *fakeTimer {
	due := make([]*fakeTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if t.at <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].id < due[j].id
		}
		return due[i].at < due[j].at
	})
	return due[0]
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}
