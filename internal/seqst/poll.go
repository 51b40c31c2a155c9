package seqst

import (
	"context"
	"fmt"
	"time"
)

// JobState classifies a remote job's status.
type JobState int

const (
	// Submitted is the state before the first poll.
	Submitted JobState = iota

	// Waiting means the job is still running and should be polled again.
	Waiting

	// Ready is terminal, results can be fetched.
	Ready

	// Failed is terminal, the remote reported the job failed.
	Failed

	// Expired is terminal, the remote no longer recognizes the job id.
	Expired

	// Unknown is terminal, the remote status could not be classified.
	Unknown
)

func (s JobState) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Waiting:
		return "waiting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// JobError reports a job that terminated in a state other than Ready.
type JobError struct {
	// ID of the remote job
	ID string

	// State the job terminated in
	State JobState
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s %s", e.ID, e.State)
}

// Job is one submitted remote job, tracked until it turns terminal.
type Job struct {
	// ID assigned by the remote service on submission
	ID string

	// Started is when tracking began
	Started time.Time

	// Delay before the next poll
	Delay time.Duration

	// State reported by the most recent poll
	State JobState
}

// Poller drives a submitted job to a terminal state. The delay between
// polls grows on every Waiting answer and there is no retry cap, the
// remote owns the job lifetime and eventually reports a terminal state
// (an abandoned id turns Expired on the remote's schedule).
type Poller struct {
	// Poll classifies the job's current remote status
	Poll func(ctx context.Context, id string) (JobState, error)

	// Initial delay before the first poll
	Initial time.Duration

	// Increment added to the delay after every Waiting poll
	Increment time.Duration

	// OnWait, when set, observes the job before each renewed wait
	OnWait func(job Job)
}

// Wait blocks until the job reaches a terminal state. It sleeps head
// first, the remote's own completion estimate, then Initial before the
// first poll. Ready returns nil, every other terminal state returns a
// JobError naming the job. Cancelling ctx abandons the job cleanly
// between polls.
func (p *Poller) Wait(ctx context.Context, id string, head time.Duration) error {
	job := Job{ID: id, Started: time.Now(), Delay: p.Initial, State: Submitted}

	if err := sleep(ctx, head); err != nil {
		return err
	}

	for {
		if err := sleep(ctx, job.Delay); err != nil {
			return err
		}

		state, err := p.Poll(ctx, id)
		if err != nil {
			return err
		}
		job.State = state

		switch state {
		case Waiting:
			job.Delay += p.Increment
			if p.OnWait != nil {
				p.OnWait(job)
			}
		case Ready:
			return nil
		default:
			return &JobError{ID: id, State: state}
		}
	}
}

// sleep is a context aware time.Sleep.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
