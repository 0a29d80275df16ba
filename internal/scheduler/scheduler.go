package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named periodic task.
type Job struct {
	Name string
	// Spec is a standard five-field cron expression evaluated in UTC.
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs jobs on their cron specs until stopped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	mu   sync.Mutex
	jobs []Job
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		log:    logger,
	}
}

// Add registers a job. Jobs with an empty spec are skipped so that callers can
// pass optional schedules straight from configuration.
func (s *Scheduler) Add(job Job) error {
	if job.Spec == "" {
		s.log.Info("job disabled", zap.String("job", job.Name))
		return nil
	}
	if job.Run == nil {
		return fmt.Errorf("job %s: nil run function", job.Name)
	}
	_, err := s.cron.AddFunc(job.Spec, func() {
		start := time.Now()
		s.log.Info("job triggered", zap.String("job", job.Name))
		if err := job.Run(s.ctx); err != nil {
			s.log.Error("job failed", zap.String("job", job.Name), zap.Error(err))
			return
		}
		s.log.Info("job done", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("job %s: bad cron spec %q: %w", job.Name, job.Spec, err)
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	return nil
}

// Start runs registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish and cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info("scheduler stopped")
}

// IsRunning reports whether any job is scheduled.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

// RunNow executes the named job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var job *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			job = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()
	if job == nil {
		return fmt.Errorf("unknown job %s", name)
	}
	return job.Run(ctx)
}
