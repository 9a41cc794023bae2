package cron

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// JobStatus is the last observed state of a maintenance job.
type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusFulfill JobStatus = "fulfill"
	StatusReject  JobStatus = "reject"
)

// Job is a named background task that runs on a fixed interval.
type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	Fn          func(ctx context.Context) error
}

type jobState struct {
	Job
	status    JobStatus
	message   string
	lastRunAt *time.Time
	nextRunAt time.Time
	mu        sync.Mutex
}

// JobSummary is the serializable view of a registered job.
type JobSummary struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      JobStatus  `json:"status"`
	NextRunAt   *time.Time `json:"next_run_at"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
}

// RunState reports the outcome of a job's most recent execution.
type RunState struct {
	Status  JobStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

// Scheduler runs the registered maintenance jobs, each on its own interval.
// A job never overlaps itself; distinct jobs run independently.
type Scheduler struct {
	mu   sync.RWMutex
	jobs map[string]*jobState
}

func New() *Scheduler {
	return &Scheduler{jobs: make(map[string]*jobState)}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = &jobState{
		Job:       job,
		status:    StatusIdle,
		nextRunAt: time.Now().Add(job.Interval),
	}
}

// Start launches every registered job. Jobs stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, js := range s.jobs {
		go s.runLoop(ctx, js)
	}
}

func (s *Scheduler) runLoop(ctx context.Context, js *jobState) {
	for {
		wait := time.Until(js.nextRunAt)
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			s.execute(ctx, js)
			js.mu.Lock()
			js.nextRunAt = time.Now().Add(js.Interval)
			js.mu.Unlock()
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, js *jobState) {
	js.mu.Lock()
	if js.status == StatusRunning {
		js.mu.Unlock()
		return
	}
	js.status = StatusRunning
	js.mu.Unlock()

	now := time.Now()
	err := js.Fn(ctx)

	js.mu.Lock()
	js.lastRunAt = &now
	if err != nil {
		js.status = StatusReject
		js.message = err.Error()
	} else {
		js.status = StatusFulfill
		js.message = ""
	}
	js.mu.Unlock()
}

// Run triggers a job by name ahead of schedule, without blocking the caller.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	s.mu.RLock()
	js, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	go s.execute(ctx, js)
	return nil
}

// State returns the most recent execution outcome of a job.
func (s *Scheduler) State(name string) (*RunState, error) {
	s.mu.RLock()
	js, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("job %q not found", name)
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	return &RunState{Status: js.status, Message: js.message}, nil
}

// List summarizes every registered job.
func (s *Scheduler) List() []JobSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]JobSummary, 0, len(s.jobs))
	for _, js := range s.jobs {
		js.mu.Lock()
		next := js.nextRunAt
		items = append(items, JobSummary{
			Name:        js.Name,
			Description: js.Description,
			Status:      js.status,
			NextRunAt:   &next,
			LastRunAt:   js.lastRunAt,
		})
		js.mu.Unlock()
	}
	return items
}
