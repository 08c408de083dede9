package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/emote-relay/internal/database"
)

const minInterval = time.Minute

// ScheduledTask is one channel's recurring task in the queue.
type ScheduledTask struct {
	Channel  *database.Channel
	Interval time.Duration
	NextRun  time.Time
	index    int
	taskFunc func(c *database.Channel)
}

// PriorityQueue orders tasks by NextRun.
type PriorityQueue []*ScheduledTask

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	return pq[i].NextRun.Before(pq[j].NextRun)
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

// Push adds an item to the priority queue.
func (pq *PriorityQueue) Push(x any) {
	item := x.(*ScheduledTask)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

// Pop removes and returns the last item.
func (pq *PriorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// RefreshScheduler re-runs channel catalog loads at each channel's interval.
type RefreshScheduler struct {
	mu      sync.Mutex
	pq      PriorityQueue
	wake    chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	now     func() time.Time
}

// NewRefreshScheduler creates a new scheduler.
func NewRefreshScheduler() *RefreshScheduler {
	return &RefreshScheduler{
		wake: make(chan struct{}, 1),
		now:  time.Now,
	}
}

// Add schedules task for the channel. The first run is due one interval after
// the channel's last load, or immediately when it was never loaded or is overdue.
func (s *RefreshScheduler) Add(channel *database.Channel, interval time.Duration, task func(c *database.Channel)) error {
	if interval < minInterval {
		log.Warn().Str("channel", channel.Name).Dur("interval", interval).Msg("Refresh interval too short, using minimum")
		interval = minInterval
	}

	now := s.now()
	nextRun := now
	if channel.LastLoadedAt != nil {
		if due := channel.LastLoadedAt.Add(interval); due.After(now) {
			nextRun = due
		}
	}

	s.mu.Lock()
	heap.Push(&s.pq, &ScheduledTask{Channel: channel, Interval: interval, NextRun: nextRun, taskFunc: task})
	s.mu.Unlock()

	log.Debug().Str("channel", channel.Name).Time("first_run_at", nextRun).Msg("Channel added to refresh scheduler")
	s.poke()
	return nil
}

// Len returns the number of scheduled channels.
func (s *RefreshScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pq.Len()
}

func (s *RefreshScheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start begins the scheduler loop. It stops when ctx ends or Stop is called.
func (s *RefreshScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	log.Info().Msg("Refresh scheduler started")
	go func() {
		defer close(doneCh)
		timer := time.NewTimer(s.runPending())
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				s.markStopped()
				return
			case <-stopCh:
				s.markStopped()
				return
			case <-s.wake:
			case <-timer.C:
			}
			timer.Stop()
			timer.Reset(s.runPending())
		}
	}()
}

// runPending launches every due task and returns the delay until the next one.
func (s *RefreshScheduler) runPending() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for s.pq.Len() > 0 {
		task := s.pq[0]
		if task.NextRun.After(now) {
			break
		}
		heap.Pop(&s.pq)
		log.Debug().Str("channel", task.Channel.Name).Msg("Running scheduled refresh")
		go task.taskFunc(task.Channel)

		task.NextRun = now.Add(task.Interval)
		heap.Push(&s.pq, task)
	}

	if s.pq.Len() == 0 {
		return 24 * time.Hour
	}
	return max(s.pq[0].NextRun.Sub(now), 0)
}

func (s *RefreshScheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	log.Info().Msg("Refresh scheduler stopped")
}

// Stop halts the loop and waits for it to exit. Running tasks are not interrupted.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()
	<-doneCh
}
