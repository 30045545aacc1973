package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventlyhq/evently/internal/domain/job"
	"github.com/eventlyhq/evently/internal/http/handlers"
)

type fakeJobsAdmin struct {
	listFn    func(ctx context.Context, status string, limit int) ([]job.Job, error)
	requeueFn func(ctx context.Context, id string) error
}

func (f *fakeJobsAdmin) ListByStatus(ctx context.Context, status string, limit int) ([]job.Job, error) {
	if f.listFn != nil {
		return f.listFn(ctx, status, limit)
	}
	return nil, nil
}

func (f *fakeJobsAdmin) RequeueFailed(ctx context.Context, id string) error {
	if f.requeueFn != nil {
		return f.requeueFn(ctx, id)
	}
	return nil
}

func TestListJobsHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		svcSetup       func(*fakeJobsAdmin)
		wantStatusCode int
		wantStatus     string
	}{
		{
			name: "defaults_to_failed",
			url:  "/admin/jobs",
			svcSetup: func(f *fakeJobsAdmin) {
				f.listFn = func(ctx context.Context, status string, limit int) ([]job.Job, error) {
					if status != string(job.StatusFailed) || limit != 50 {
						t.Fatalf("got status=%q limit=%d, want failed/50", status, limit)
					}
					return []job.Job{job.New(job.CreateRequest{Type: "registration_confirmation"})}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "failed",
		},
		{
			name: "explicit_status_and_limit",
			url:  "/admin/jobs?status=pending&limit=5",
			svcSetup: func(f *fakeJobsAdmin) {
				f.listFn = func(ctx context.Context, status string, limit int) ([]job.Job, error) {
					if status != string(job.StatusPending) || limit != 5 {
						t.Fatalf("got status=%q limit=%d, want pending/5", status, limit)
					}
					return nil, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "pending",
		},
		{
			name:           "unknown_status",
			url:            "/admin/jobs?status=sleeping",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_limit",
			url:            "/admin/jobs?limit=zero",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeJobsAdmin{}

			if tt.svcSetup != nil {
				tt.svcSetup(repo)
			}

			h := handlers.NewAdminJobsHandler(repo)
			r := setupRouter(http.MethodGet, "/admin/jobs", h.ListJobs)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Status string `json:"status"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Status != tt.wantStatus {
					t.Fatalf("got status %q, want %q", resp.Status, tt.wantStatus)
				}
			}
		})
	}
}

func TestRequeueJobHandler(t *testing.T) {
	jobID := newUUID()

	tests := []struct {
		name           string
		url            string
		svcSetup       func(*fakeJobsAdmin)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/admin/jobs/" + jobID + "/requeue",
			svcSetup: func(f *fakeJobsAdmin) {
				f.requeueFn = func(ctx context.Context, id string) error {
					if id != jobID {
						t.Fatalf("requeued %q, want %q", id, jobID)
					}
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			url:  "/admin/jobs/" + newUUID() + "/requeue",
			svcSetup: func(f *fakeJobsAdmin) {
				f.requeueFn = func(ctx context.Context, id string) error {
					return job.ErrJobNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_id",
			url:            "/admin/jobs/42/requeue",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeJobsAdmin{}

			if tt.svcSetup != nil {
				tt.svcSetup(repo)
			}

			h := handlers.NewAdminJobsHandler(repo)
			r := setupRouter(http.MethodPost, "/admin/jobs/:id/requeue", h.RequeueJob)

			req := httptest.NewRequest(http.MethodPost, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
