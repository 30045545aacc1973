package worker

import (
	"context"
	"errors"
	"time"

	"github.com/eventlyhq/evently/internal/domain/job"
	"github.com/eventlyhq/evently/internal/jobs"
)

// ProcessOne claims and executes a single job. The bool reports whether
// a job was actually claimed, so callers can drain until empty.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()

	err = w.execute(ctx, j)

	if err != nil {
		w.handleFailure(ctx, j, err, time.Since(start))
		return true, nil
	}

	bctx, bcancel := bookkeepingContext(ctx)
	defer bcancel()

	err = w.repo.MarkDone(bctx, j.ID)

	if err != nil {
		if ferr := w.repo.MarkFailed(bctx, j.ID, "mark_done_failed: "+err.Error()); ferr != nil {
			w.log.Error("job state update failed", "job_id", j.ID, "err", ferr)
		}
		return true, err
	}

	w.observe(j.Type, "done", time.Since(start))
	w.log.Info("job done", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts)

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	t := jobs.JobType(j.Type)

	payload, err := jobs.DecodePayload(t, j.Payload)

	if err != nil {
		return err
	}

	subject := jobs.Subject(t, payload.EventName)
	body := jobs.Body(t, payload.EventName, payload.EventDate)

	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	return w.mailer.Send(sendCtx, payload.To, subject, body)
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error, elapsed time.Duration) {
	// The run context may already be cancelled (shutdown interrupted the
	// send); the queue state still has to be written or the row stays
	// processing until the stale-claim reclaim kicks in.
	bctx, cancel := bookkeepingContext(ctx)
	defer cancel()

	// malformed jobs never succeed, bury them immediately
	if errors.Is(execErr, jobs.ErrInvalidJobType) || errors.Is(execErr, jobs.ErrInvalidJobPayload) {
		w.observe(j.Type, "failed", elapsed)
		w.log.Error("job payload invalid", "job_id", j.ID, "type", j.Type, "err", execErr)

		if err := w.repo.MarkFailed(bctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("job state update failed", "job_id", j.ID, "err", err)
		}
		return
	}

	// attempts was bumped by earlier reschedules; this execution makes
	// one more
	if j.Attempts+1 >= j.MaxAttempts {
		w.observe(j.Type, "failed", elapsed)
		w.log.Error("job exhausted retries", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts+1, "err", execErr)

		if err := w.repo.MarkFailed(bctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("job state update failed", "job_id", j.ID, "err", err)
		}
		return
	}

	delay := ExponentialBackoff(j.Attempts)

	w.observe(j.Type, "retry", elapsed)
	w.log.Warn("job failed, rescheduling",
		"job_id", j.ID, "type", j.Type,
		"attempts", j.Attempts+1, "retry_in", delay.String(), "err", execErr)

	if err := w.repo.Reschedule(bctx, j.ID, time.Now().UTC().Add(delay), execErr.Error()); err != nil {
		w.log.Error("job state update failed", "job_id", j.ID, "err", err)
	}
}

// bookkeepingContext detaches queue-state writes from the run context so
// they still land during shutdown, with a short deadline of their own.
func bookkeepingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}

func (w *Worker) observe(jobType, result string, elapsed time.Duration) {
	if w.prom != nil {
		w.prom.ObserveJob(jobType, result, elapsed)
	}
}
