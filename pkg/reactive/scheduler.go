package reactive

import (
	"fmt"
	"sync"
)

// FlushMode selects when a deferred reaction runs relative to the mutation
// that triggered it.
type FlushMode uint8

const (
	// FlushPre defers the reaction to the pre queue of the next flush cycle.
	FlushPre FlushMode = iota

	// FlushPost defers the reaction to the post queue, after every pre job
	// of the same cycle has run.
	FlushPost

	// FlushSync runs the reaction inside the mutating call.
	FlushSync
)

// String returns the mode name as used in configuration files.
func (f FlushMode) String() string {
	switch f {
	case FlushPre:
		return "pre"
	case FlushPost:
		return "post"
	case FlushSync:
		return "sync"
	default:
		return "unknown"
	}
}

// ParseFlushMode parses "pre", "post" or "sync". The empty string is "pre".
func ParseFlushMode(s string) (FlushMode, error) {
	switch s {
	case "", "pre":
		return FlushPre, nil
	case "post":
		return FlushPost, nil
	case "sync":
		return FlushSync, nil
	default:
		return FlushPre, fmt.Errorf("reactive: unknown flush mode %q", s)
	}
}

// job is a deferred reaction, deduplicated by id while queued.
type job struct {
	id  uint64
	run func()
}

// scheduler holds the pre and post queues of the current flush cycle.
type scheduler struct {
	mu       sync.Mutex
	pre      []job
	post     []job
	queued   map[uint64]struct{}
	flushing bool
}

var defaultScheduler = &scheduler{queued: make(map[uint64]struct{})}

// QueueJob schedules run for the next flush cycle. A job whose id is already
// queued is coalesced and QueueJob returns false. FlushSync runs immediately.
func QueueJob(mode FlushMode, id uint64, run func()) bool {
	if mode == FlushSync {
		run()
		return true
	}
	return defaultScheduler.queue(mode, job{id: id, run: run})
}

// Flush runs every queued job: pre jobs first, then post jobs. Jobs queued
// while flushing run in the same cycle. Calling Flush from inside a job is a
// no-op.
func Flush() {
	defaultScheduler.flush()
}

// PendingJobs returns the number of jobs waiting for the next flush.
func PendingJobs() int {
	defaultScheduler.mu.Lock()
	defer defaultScheduler.mu.Unlock()
	return len(defaultScheduler.pre) + len(defaultScheduler.post)
}

func (s *scheduler) queue(mode FlushMode, j job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queued[j.id]; ok {
		return false
	}
	s.queued[j.id] = struct{}{}

	if mode == FlushPost {
		s.post = append(s.post, j)
	} else {
		s.pre = append(s.pre, j)
	}
	return true
}

// next pops the next job, pre queue first.
func (s *scheduler) next() (job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var j job
	switch {
	case len(s.pre) > 0:
		j = s.pre[0]
		s.pre = s.pre[1:]
	case len(s.post) > 0:
		j = s.post[0]
		s.post = s.post[1:]
	default:
		return job{}, false
	}
	delete(s.queued, j.id)
	return j, true
}

func (s *scheduler) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	for {
		j, ok := s.next()
		if !ok {
			return
		}
		j.run()
	}
}
