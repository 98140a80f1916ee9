package memory

import (
	"context"
	"time"

	"github.com/geocoder89/eventdesk/internal/domain/job"
)

type JobsRepo struct {
	s   *Store
	now func() time.Time
}

func NewJobsRepo(s *Store) *JobsRepo {
	return &JobsRepo{s: s, now: time.Now}
}

// ClaimNext locks the oldest runnable pending job for workerID.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.now().UTC()
	pick := -1

	for i, j := range r.s.jobs {
		if j.Status != job.StatusPending || j.RunAt.After(now) || j.Attempts >= j.MaxAttempts {
			continue
		}
		if pick == -1 || j.RunAt.Before(r.s.jobs[pick].RunAt) {
			pick = i
		}
	}

	if pick == -1 {
		return job.Job{}, job.ErrJobNotFound
	}

	j := &r.s.jobs[pick]
	j.Status = job.StatusProcessing
	j.LockedAt = &now
	j.LockedBy = &workerID
	j.UpdatedAt = now

	return *j, nil
}

func (r *JobsRepo) update(id string, fn func(j *job.Job)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.jobs {
		if r.s.jobs[i].ID == id {
			fn(&r.s.jobs[i])
			r.s.jobs[i].LockedAt = nil
			r.s.jobs[i].LockedBy = nil
			r.s.jobs[i].UpdatedAt = r.now().UTC()
			return nil
		}
	}

	return job.ErrJobNotFound
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.LastError = nil
	})
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Attempts++
		j.LastError = &errMsg
	})
}

func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusPending
		j.Attempts++
		j.RunAt = runAt
		j.LastError = &errMsg
	})
}

// RequeueStaleProcessing returns jobs locked longer than lockTTL to pending.
func (r *JobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cutoff := r.now().UTC().Add(-lockTTL)
	var n int64

	for i := range r.s.jobs {
		j := &r.s.jobs[i]
		if j.Status == job.StatusProcessing && j.LockedAt != nil && j.LockedAt.Before(cutoff) {
			j.Status = job.StatusPending
			j.LockedAt = nil
			j.LockedBy = nil
			n++
		}
	}

	return n, nil
}

// All returns a copy of every job, oldest first.
func (r *JobsRepo) All() []job.Job {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]job.Job, len(r.s.jobs))
	copy(out, r.s.jobs)
	return out
}
