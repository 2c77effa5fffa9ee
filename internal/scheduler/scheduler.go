// Package scheduler runs named, non-reentrant jobs on interval or
// daily-cron triggers. Re-registering a name replaces the previous
// binding; a tick is skipped (not queued) if the previous invocation of
// the same job id is still running.
package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one unit of scheduled work.
type Job interface {
	Run() error
	Name() string
}

// jobHandle tracks the non-reentrancy flag, cron entry and schedule
// expression for one registered job id. The schedule is kept so Pause
// can remove the cron entry and Resume can later re-add it unchanged.
type jobHandle struct {
	job      Job
	running  atomic.Bool
	entryID  cron.EntryID
	schedule string
	paused   bool
}

// Scheduler manages background jobs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*jobHandle
}

// New creates a new Scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
		jobs: make(map[string]*jobHandle),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the scheduler, waiting for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers a job on a raw cron expression (supports seconds,
// "@every N", etc.). Re-registering the same job name replaces the
// previous binding.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	return s.register(schedule, job)
}

// AddInterval registers a job to run every N minutes.
func (s *Scheduler) AddInterval(job Job, minutes int) error {
	return s.register(fmt.Sprintf("@every %dm", minutes), job)
}

// AddDaily registers a job to run once a day at HH:MM in the given
// timezone.
func (s *Scheduler) AddDaily(job Job, hhmm string, tz *time.Location) error {
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		return fmt.Errorf("scheduler: invalid daily time %q: %w", hhmm, err)
	}
	expr := fmt.Sprintf("0 %d %d * * *", minute, hour)
	if tz != nil {
		expr = fmt.Sprintf("CRON_TZ=%s %s", tz.String(), expr)
	}
	return s.register(expr, job)
}

func (s *Scheduler) register(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if existing, ok := s.jobs[name]; ok {
		s.cron.Remove(existing.entryID)
		delete(s.jobs, name)
	}

	handle := &jobHandle{job: job, schedule: schedule}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runTick(handle)
	})
	if err != nil {
		return err
	}
	handle.entryID = entryID
	s.jobs[name] = handle

	s.log.Info().Str("schedule", schedule).Str("job", name).Msg("job registered")
	return nil
}

// runTick is the non-reentrancy gate: if the previous invocation of this
// job is still running, the tick is skipped silently (SchedulerOverlap).
func (s *Scheduler) runTick(h *jobHandle) {
	if !h.running.CompareAndSwap(false, true) {
		s.log.Debug().Str("job", h.job.Name()).Msg("tick skipped, previous run still in flight")
		return
	}
	defer h.running.Store(false)

	s.log.Debug().Str("job", h.job.Name()).Msg("running job")
	if err := h.job.Run(); err != nil {
		s.log.Error().Err(err).Str("job", h.job.Name()).Msg("job failed")
	} else {
		s.log.Debug().Str("job", h.job.Name()).Msg("job completed")
	}
}

// RunNow executes a job immediately, subject to the same non-reentrancy
// gate as scheduled ticks. A job that is not registered yet is recorded
// under its name (with no cron entry) so repeated calls share one gate.
func (s *Scheduler) RunNow(job Job) error {
	s.mu.Lock()
	handle, ok := s.jobs[job.Name()]
	if !ok {
		handle = &jobHandle{job: job}
		s.jobs[job.Name()] = handle
	}
	s.mu.Unlock()

	if !handle.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler: job %q already running", job.Name())
	}
	defer handle.running.Store(false)

	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return job.Run()
}

// Pause removes a job's cron entry without forgetting its registration,
// so Resume can re-add it.
func (s *Scheduler) Pause(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.jobs[name]; ok {
		s.cron.Remove(h.entryID)
		h.paused = true
	}
}

// Resume re-adds a paused job's cron entry using its original schedule.
// It is a no-op (returning nil) if the job is registered but not paused.
func (s *Scheduler) Resume(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("scheduler: job %q not found", name)
	}
	if !h.paused {
		return nil
	}

	entryID, err := s.cron.AddFunc(h.schedule, func() {
		s.runTick(h)
	})
	if err != nil {
		return fmt.Errorf("scheduler: resume job %q: %w", name, err)
	}
	h.entryID = entryID
	h.paused = false

	s.log.Info().Str("job", name).Msg("job resumed")
	return nil
}

// List returns job names with their next scheduled run time.
func (s *Scheduler) List() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time, len(s.jobs))
	for name, h := range s.jobs {
		for _, e := range s.cron.Entries() {
			if e.ID == h.entryID {
				out[name] = e.Next
			}
		}
	}
	return out
}
