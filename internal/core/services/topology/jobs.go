package topology

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// JobStatus is the lifecycle state of an async rebuild.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// RefreshJob tracks one background rebuild request.
type RefreshJob struct {
	ID         string     `json:"id"`
	Site       string     `json:"site,omitempty"`
	Status     JobStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// JobRunner starts rebuilds in the background and answers status polls.
// Finished jobs expire from the cache after an hour.
type JobRunner struct {
	store *Store
	jobs  *gocache.Cache
	log   *slog.Logger
}

func NewJobRunner(store *Store, log *slog.Logger) *JobRunner {
	return &JobRunner{
		store: store,
		jobs:  gocache.New(time.Hour, 10*time.Minute),
		log:   log,
	}
}

// Start launches a rebuild for the site and returns the job id immediately.
// The rebuild runs detached from the request's context; a client hanging up
// must not abort a half-done site poll.
func (r *JobRunner) Start(site string, timeout time.Duration) RefreshJob {
	job := RefreshJob{
		ID:        uuid.NewString(),
		Site:      site,
		Status:    JobRunning,
		StartedAt: time.Now(),
	}
	r.jobs.Set(job.ID, job, gocache.DefaultExpiration)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := r.store.Rebuild(ctx, site)
		now := time.Now()
		job.FinishedAt = &now
		if err != nil {
			job.Status = JobFailed
			job.Error = err.Error()
			r.log.Error("background rebuild failed", "job", job.ID, "site", site, "err", err)
		} else {
			job.Status = JobDone
		}
		r.jobs.Set(job.ID, job, gocache.DefaultExpiration)
	}()
	return job
}

// Job returns the current state of a rebuild job.
func (r *JobRunner) Job(id string) (RefreshJob, bool) {
	v, ok := r.jobs.Get(id)
	if !ok {
		return RefreshJob{}, false
	}
	return v.(RefreshJob), true
}
