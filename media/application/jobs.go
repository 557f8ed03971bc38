package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrJobRunning      = errors.New("another job is in progress")
	ErrJobNotRunning   = errors.New("job is not running")
	ErrJobNotCompleted = errors.New("job has not completed successfully or was already deleted")
)

type JobState string

const (
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
	JobDeleting  JobState = "deleting"
	JobDeleted   JobState = "deleted"
)

// maxFinishedJobs is how many finished jobs are kept for inspection
const maxFinishedJobs = 20

// Job is a background scan whose result can later be confirmed for deletion
type Job struct {
	ID         string
	State      JobState
	Progress   Progress
	Result     ScanResult
	Report     *DeleteReport
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time

	cancel context.CancelFunc
}

func (j *Job) snapshot() Job {
	cp := *j
	cp.cancel = nil
	return cp
}

func (j *Job) finished() bool {
	return j.State != JobRunning && j.State != JobDeleting
}

// JobManager runs scans in the background. Only one scan or deletion runs at a time, and
// deletion is only possible for the full result of a completed scan.
type JobManager struct {
	service *SweepService

	// Manager lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup

	mu    sync.Mutex
	jobs  map[string]*Job
	order []string
	busy  string
}

func NewJobManager(service *SweepService) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		service: service,
		ctx:     ctx,
		cancel:  cancel,
		wg:      &sync.WaitGroup{},
		jobs:    make(map[string]*Job),
	}
}

// Close cancels running jobs and waits for them to stop
func (m *JobManager) Close() error {
	m.cancel()
	m.wg.Wait()

	return nil
}

// Start launches a background scan and returns its initial state
func (m *JobManager) Start() (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busy != "" {
		return Job{}, ErrJobRunning
	}
	if err := m.ctx.Err(); err != nil {
		return Job{}, err
	}

	jobCtx, cancel := context.WithCancel(m.ctx)
	job := &Job{
		ID:        uuid.NewString(),
		State:     JobRunning,
		StartedAt: time.Now().UTC(),
		cancel:    cancel,
	}

	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.busy = job.ID
	m.prune()

	m.wg.Go(func() {
		defer cancel()
		m.run(jobCtx, job.ID)
	})

	log.Info().Str("jobID", job.ID).Msg("Started scan job")
	return job.snapshot(), nil
}

func (m *JobManager) run(ctx context.Context, id string) {
	result, err := m.service.ScanWithProgress(ctx, func(p Progress) {
		m.mu.Lock()
		m.jobs[id].Progress = p
		m.mu.Unlock()
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.jobs[id]
	job.FinishedAt = time.Now().UTC()
	m.busy = ""

	switch {
	case errors.Is(err, context.Canceled):
		job.State = JobCancelled
		log.Info().Str("jobID", id).Msg("Scan job cancelled")
	case err != nil:
		job.State = JobFailed
		job.Error = err.Error()
		log.Error().Err(err).Str("jobID", id).Msg("Scan job failed")
	default:
		job.State = JobCompleted
		job.Result = result
		log.Info().Str("jobID", id).Int("unused", len(result.Unused)).Msg("Scan job completed")
	}
}

// Get returns the current state of a job
func (m *JobManager) Get(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job.snapshot(), nil
}

// List returns all retained jobs, oldest first
func (m *JobManager) List() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		jobs = append(jobs, m.jobs[id].snapshot())
	}
	return jobs
}

// Cancel stops a running scan
func (m *JobManager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.State != JobRunning {
		return ErrJobNotRunning
	}

	job.cancel()
	return nil
}

// ConfirmDelete deletes the unused images found by a completed job. A job's result can only
// be deleted once, and never while another job is running.
func (m *JobManager) ConfirmDelete(ctx context.Context, id string) (DeleteReport, error) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	switch {
	case !ok:
		m.mu.Unlock()
		return DeleteReport{}, ErrJobNotFound
	case m.busy != "":
		m.mu.Unlock()
		return DeleteReport{}, ErrJobRunning
	case job.State != JobCompleted:
		m.mu.Unlock()
		return DeleteReport{}, ErrJobNotCompleted
	}

	job.State = JobDeleting
	m.busy = id
	unused := job.Result.Unused
	m.mu.Unlock()

	report := m.service.DeleteUnused(ctx, unused)

	m.mu.Lock()
	defer m.mu.Unlock()
	job.State = JobDeleted
	job.Report = &report
	m.busy = ""

	log.Info().Str("jobID", id).Int("deleted", len(report.Deleted)).Int("skipped", len(report.Skipped)).Int("failed", len(report.Failed)).Msg("Deleted unused images")
	return report, nil
}

// prune drops the oldest finished jobs beyond maxFinishedJobs. Must be called with mu held.
func (m *JobManager) prune() {
	finished := 0
	for _, id := range m.order {
		if m.jobs[id].finished() {
			finished++
		}
	}

	kept := m.order[:0]
	for _, id := range m.order {
		if finished > maxFinishedJobs && m.jobs[id].finished() {
			delete(m.jobs, id)
			finished--
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}
