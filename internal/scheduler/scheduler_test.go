package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emote-relay/internal/database"
)

func TestRefreshScheduler_RunsDueChannels(t *testing.T) {
	s := NewRefreshScheduler()
	ran := make(chan string, 4)

	recent := time.Now()
	require.NoError(t, s.Add(&database.Channel{Name: "fresh", LastLoadedAt: &recent}, time.Hour, func(c *database.Channel) { ran <- c.Name }))
	require.NoError(t, s.Add(&database.Channel{Name: "never"}, time.Hour, func(c *database.Channel) { ran <- c.Name }))
	assert.Equal(t, 2, s.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	select {
	case name := <-ran:
		assert.Equal(t, "never", name)
	case <-time.After(2 * time.Second):
		t.Fatal("due channel was not refreshed")
	}

	select {
	case name := <-ran:
		t.Fatalf("channel %s ran before its interval", name)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRefreshScheduler_AddWhileRunning(t *testing.T) {
	s := NewRefreshScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	var runs atomic.Int32
	done := make(chan struct{})
	require.NoError(t, s.Add(&database.Channel{Name: "late"}, time.Minute, func(*database.Channel) {
		if runs.Add(1) == 1 {
			close(done)
		}
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("channel added after start was not refreshed")
	}
	s.Stop()
	s.Stop()
}

func TestRefreshScheduler_ClampsInterval(t *testing.T) {
	s := NewRefreshScheduler()
	require.NoError(t, s.Add(&database.Channel{Name: "c"}, time.Second, func(*database.Channel) {}))
	assert.Equal(t, minInterval, s.pq[0].Interval)
}
