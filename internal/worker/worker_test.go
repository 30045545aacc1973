package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eventlyhq/evently/internal/domain/job"
	"github.com/eventlyhq/evently/internal/jobs"
	"github.com/eventlyhq/evently/internal/worker"
)

type fakeJobsRepo struct {
	claimFn          func(ctx context.Context, workerID string) (job.Job, error)
	doneIDs          []string
	failed           map[string]string
	rescheduled      map[string]time.Time
	rescheduleAt     time.Time
	rescheduleCtxErr error
}

func newFakeJobsRepo() *fakeJobsRepo {
	return &fakeJobsRepo{
		failed:      map[string]string{},
		rescheduled: map[string]time.Time{},
	}
}

func (f *fakeJobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	if f.claimFn != nil {
		return f.claimFn(ctx, workerID)
	}
	return job.Job{}, job.ErrJobNotFound
}

func (f *fakeJobsRepo) MarkDone(ctx context.Context, id string) error {
	f.doneIDs = append(f.doneIDs, id)
	return nil
}

func (f *fakeJobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	f.failed[id] = errMsg
	return nil
}

func (f *fakeJobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	f.rescheduled[id] = runAt
	f.rescheduleAt = runAt
	f.rescheduleCtxErr = ctx.Err()
	return nil
}

type fakeMailer struct {
	sent []string // "to|subject"
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validPayload(t *testing.T) json.RawMessage {
	t.Helper()

	raw, err := jobs.EmailPayload{
		To:        "ada@example.com",
		EventName: "Go Conference",
		EventDate: time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
	}.JSON()

	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	return raw
}

func claimOnce(j job.Job) func(ctx context.Context, workerID string) (job.Job, error) {
	claimed := false

	return func(ctx context.Context, workerID string) (job.Job, error) {
		if claimed {
			return job.Job{}, job.ErrJobNotFound
		}
		claimed = true
		return j, nil
	}
}

func newWorker(repo *fakeJobsRepo, m *fakeMailer) *worker.Worker {
	return worker.New(worker.Config{WorkerID: "test-1"}, repo, m, nil, testLogger())
}

func TestProcessOneSendsAndMarksDone(t *testing.T) {
	j := job.Job{
		ID:          "job-1",
		Type:        string(jobs.TypeRegistrationConfirmation),
		Payload:     validPayload(t),
		MaxAttempts: 10,
	}

	repo := newFakeJobsRepo()
	repo.claimFn = claimOnce(j)

	m := &fakeMailer{}
	w := newWorker(repo, m)

	processed, err := w.ProcessOne(context.Background())

	if err != nil || !processed {
		t.Fatalf("processed=%v err=%v", processed, err)
	}

	if len(m.sent) != 1 || m.sent[0] != "ada@example.com|Registration Confirmed: Go Conference" {
		t.Fatalf("sent=%v", m.sent)
	}

	if len(repo.doneIDs) != 1 || repo.doneIDs[0] != "job-1" {
		t.Fatalf("doneIDs=%v", repo.doneIDs)
	}
}

func TestProcessOneEmptyQueue(t *testing.T) {
	repo := newFakeJobsRepo()
	w := newWorker(repo, &fakeMailer{})

	processed, err := w.ProcessOne(context.Background())

	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if processed {
		t.Fatalf("claimed a job from an empty queue")
	}
}

func TestProcessOneReschedulesOnSendError(t *testing.T) {
	j := job.Job{
		ID:          "job-2",
		Type:        string(jobs.TypeEventReminder),
		Payload:     validPayload(t),
		Attempts:    2,
		MaxAttempts: 10,
	}

	repo := newFakeJobsRepo()
	repo.claimFn = claimOnce(j)

	m := &fakeMailer{err: errors.New("smtp unreachable")}
	w := newWorker(repo, m)

	before := time.Now().UTC()
	processed, err := w.ProcessOne(context.Background())

	if err != nil || !processed {
		t.Fatalf("processed=%v err=%v", processed, err)
	}

	runAt, ok := repo.rescheduled["job-2"]

	if !ok {
		t.Fatalf("job not rescheduled; failed=%v done=%v", repo.failed, repo.doneIDs)
	}

	// attempt=2 -> 8s backoff plus up to 250ms jitter
	min := before.Add(8 * time.Second)
	max := before.Add(9 * time.Second)

	if runAt.Before(min) || runAt.After(max) {
		t.Fatalf("runAt=%v, want within [%v, %v]", runAt, min, max)
	}

	if len(repo.failed) != 0 || len(repo.doneIDs) != 0 {
		t.Fatalf("unexpected terminal state: failed=%v done=%v", repo.failed, repo.doneIDs)
	}
}

func TestProcessOneReschedulesWhenShutdownInterruptsSend(t *testing.T) {
	j := job.Job{
		ID:          "job-6",
		Type:        string(jobs.TypeEventReminder),
		Payload:     validPayload(t),
		Attempts:    1,
		MaxAttempts: 10,
	}

	repo := newFakeJobsRepo()
	repo.claimFn = claimOnce(j)

	// Shutdown cancels the run context mid-send. The queue write must
	// still happen, and on a context that is not itself cancelled, or
	// the row stays processing.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeMailer{err: context.Canceled}
	w := newWorker(repo, m)

	processed, err := w.ProcessOne(ctx)

	if err != nil || !processed {
		t.Fatalf("processed=%v err=%v", processed, err)
	}

	if _, ok := repo.rescheduled["job-6"]; !ok {
		t.Fatalf("job not rescheduled; failed=%v done=%v", repo.failed, repo.doneIDs)
	}

	if repo.rescheduleCtxErr != nil {
		t.Fatalf("reschedule ran on a cancelled context: %v", repo.rescheduleCtxErr)
	}
}

func TestProcessOneMarksFailedWhenRetriesExhausted(t *testing.T) {
	j := job.Job{
		ID:          "job-3",
		Type:        string(jobs.TypeRegistrationCancellation),
		Payload:     validPayload(t),
		Attempts:    9,
		MaxAttempts: 10,
	}

	repo := newFakeJobsRepo()
	repo.claimFn = claimOnce(j)

	w := newWorker(repo, &fakeMailer{err: errors.New("smtp unreachable")})

	processed, err := w.ProcessOne(context.Background())

	if err != nil || !processed {
		t.Fatalf("processed=%v err=%v", processed, err)
	}

	if _, ok := repo.failed["job-3"]; !ok {
		t.Fatalf("job not marked failed; rescheduled=%v", repo.rescheduled)
	}
	if len(repo.rescheduled) != 0 {
		t.Fatalf("job rescheduled past max attempts")
	}
}

func TestProcessOneBuriesInvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		j    job.Job
	}{
		{
			name: "unknown_type",
			j: job.Job{
				ID:          "job-4",
				Type:        "email.unknown",
				Payload:     json.RawMessage(`{"to":"a@b.c","eventName":"X"}`),
				MaxAttempts: 10,
			},
		},
		{
			name: "missing_recipient",
			j: job.Job{
				ID:          "job-5",
				Type:        string(jobs.TypeEventReminder),
				Payload:     json.RawMessage(`{"eventName":"X"}`),
				MaxAttempts: 10,
			},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeJobsRepo()
			repo.claimFn = claimOnce(tt.j)

			m := &fakeMailer{}
			w := newWorker(repo, m)

			processed, err := w.ProcessOne(context.Background())

			if err != nil || !processed {
				t.Fatalf("processed=%v err=%v", processed, err)
			}

			if _, ok := repo.failed[tt.j.ID]; !ok {
				t.Fatalf("invalid job not buried; rescheduled=%v", repo.rescheduled)
			}
			if len(m.sent) != 0 {
				t.Fatalf("send attempted for invalid payload")
			}
		})
	}
}

func TestExponentialBackoffCaps(t *testing.T) {
	small := worker.ExponentialBackoff(0)

	if small < 2*time.Second || small > 3*time.Second {
		t.Fatalf("attempt 0 backoff = %v", small)
	}

	big := worker.ExponentialBackoff(20)

	if big > 5*time.Minute+time.Second {
		t.Fatalf("backoff not capped: %v", big)
	}
}
