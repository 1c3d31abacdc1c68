package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs jobs on cron schedules with retries.
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	jobs    map[string]Job
	history map[string]*JobHistory
	mu      sync.RWMutex

	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRetries sets how many times a failed run is retried and the pause
// between attempts.
func WithRetries(n int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = max(0, n)
		s.retryDelay = delay
	}
}

// WithTimeout bounds a single attempt. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// New creates a scheduler.
func New(log zerolog.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       cron.New(),
		log:        log.With().Str("component", "scheduler").Logger(),
		jobs:       make(map[string]Job),
		history:    make(map[string]*JobHistory),
		maxRetries: 2,
		retryDelay: time.Minute,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers a job on its schedule.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.history[name] = &JobHistory{}
	s.log.Info().Str("job", name).Str("schedule", job.Schedule()).Msg("job added")
	return nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling, cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// RunJob runs a job immediately, outside its schedule.
func (s *Scheduler) RunJob(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(job)
	}()
	return nil
}

// runJob executes a job with retries and records the outcome.
func (s *Scheduler) runJob(job Job) JobResult {
	name := job.Name()
	result := JobResult{JobName: name, StartTime: time.Now()}
	log := s.log.With().Str("job", name).Logger()
	log.Info().Msg("job started")

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		result.Attempts = attempt + 1
		if lastErr = s.attempt(job); lastErr == nil {
			result.Success = true
			break
		}
		if s.ctx.Err() != nil {
			break
		}
		log.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("job attempt failed")
		if attempt < s.maxRetries {
			select {
			case <-time.After(s.retryDelay):
			case <-s.ctx.Done():
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if !result.Success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if h, ok := s.history[name]; ok {
		h.AddResult(result)
	}
	s.mu.Unlock()

	if result.Success {
		log.Info().Dur("duration", result.Duration).Msg("job completed")
	} else {
		log.Error().Err(lastErr).Dur("duration", result.Duration).Msg("job failed after all retries")
	}
	return result
}

func (s *Scheduler) attempt(job Job) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return job.Run(ctx)
}

// History returns a copy of a job's recorded results.
func (s *Scheduler) History(name string) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[name]
	if !ok {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return h.Latest(len(h.Results)), nil
}

// Jobs returns the registered job names in sorted order.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
