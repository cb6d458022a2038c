// Package workers provides the agent's background jobs: the periodic retry
// drain, the expiry purge, the network probe, and the dispatcher reacting
// to connectivity transitions.
//
// Jobs follow a Start/Stop lifecycle. Start launches a goroutine bound to
// the given context; Stop cancels it and blocks until it has fully exited.
package workers

import "context"

// Job is one background worker with an explicit lifecycle. Start must not
// block; Stop must be safe to call when the job is not running.
type Job interface {
	Start(ctx context.Context)
	Stop()
}

// Workers aggregates jobs so the agent can run and shut them down as a
// unit.
type Workers struct {
	jobs []Job
}

// NewWorkers builds the aggregate from the given jobs.
func NewWorkers(jobs ...Job) *Workers {
	return &Workers{jobs: jobs}
}

// Start launches every job.
func (w *Workers) Start(ctx context.Context) {
	for _, job := range w.jobs {
		job.Start(ctx)
	}
}

// Stop stops every job in reverse start order and waits for each to exit.
func (w *Workers) Stop() {
	for i := len(w.jobs) - 1; i >= 0; i-- {
		w.jobs[i].Stop()
	}
}
