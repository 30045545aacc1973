package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventlyhq/evently/internal/capacity"
	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/domain/registration"
	"github.com/eventlyhq/evently/internal/http/handlers"
)

type fakeRegistrationsService struct {
	createFn   func(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error)
	removeFn   func(ctx context.Context, id string) error
	findFn     func(ctx context.Context, eventID string) ([]registration.WithSummary, error)
	statsFn    func(ctx context.Context, eventID string) (capacity.Stats, error)
	lastCancel string
}

func (f *fakeRegistrationsService) Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return registration.WithSummary{}, capacity.Stats{}, nil
}

func (f *fakeRegistrationsService) Remove(ctx context.Context, id string) error {
	f.lastCancel = id

	if f.removeFn != nil {
		return f.removeFn(ctx, id)
	}
	return nil
}

func (f *fakeRegistrationsService) FindByEventID(ctx context.Context, eventID string) ([]registration.WithSummary, error) {
	if f.findFn != nil {
		return f.findFn(ctx, eventID)
	}
	return nil, nil
}

func (f *fakeRegistrationsService) StatsForEvent(ctx context.Context, eventID string) (capacity.Stats, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx, eventID)
	}
	return capacity.Stats{}, nil
}

func TestRegisterHandler(t *testing.T) {
	eventID := newUUID()
	attendeeID := newUUID()

	validBody := `{"eventId": "` + eventID + `", "attendeeId": "` + attendeeID + `"}`

	tests := []struct {
		name           string
		body           string
		svcSetup       func(*fakeRegistrationsService)
		wantStatusCode int
	}{
		{
			name: "success",
			body: validBody,
			svcSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error) {
					reg := registration.WithSummary{
						Registration: registration.New(req.EventID, req.AttendeeID),
					}
					return reg, capacity.Compute(7, 10), nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_attendee_id",
			body:           `{"eventId": "` + eventID + `"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "non_uuid_event_id",
			body:           `{"eventId": "42", "attendeeId": "` + attendeeID + `"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "event_full",
			body: validBody,
			svcSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error) {
					return registration.WithSummary{}, capacity.Stats{}, registration.ErrEventFull
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "already_registered",
			body: validBody,
			svcSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error) {
					return registration.WithSummary{}, capacity.Stats{}, registration.ErrAlreadyRegistered
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "event_missing",
			body: validBody,
			svcSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error) {
					return registration.WithSummary{}, capacity.Stats{}, event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "attendee_missing",
			body: validBody,
			svcSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error) {
					return registration.WithSummary{}, capacity.Stats{}, attendee.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "service_error",
			body: validBody,
			svcSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error) {
					return registration.WithSummary{}, capacity.Stats{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRegistrationsService{}

			if tt.svcSetup != nil {
				tt.svcSetup(svc)
			}

			h := handlers.NewRegistrationHandler(svc)
			r := setupRouter(http.MethodPost, "/registrations", h.Register)

			req := httptest.NewRequest(http.MethodPost, "/registrations", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var resp struct {
					Registration registration.WithSummary `json:"registration"`
					Capacity     capacity.Stats           `json:"capacity"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Registration.EventID != eventID {
					t.Fatalf("got eventId %q, want %q", resp.Registration.EventID, eventID)
				}
				if resp.Capacity.AvailableSpots != 3 {
					t.Fatalf("got availableSpots %d, want 3", resp.Capacity.AvailableSpots)
				}
			}
		})
	}
}

func TestListRegistrationsForEventHandler(t *testing.T) {
	eventID := newUUID()

	tests := []struct {
		name           string
		url            string
		svcSetup       func(*fakeRegistrationsService)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/registrations/event/" + eventID,
			svcSetup: func(f *fakeRegistrationsService) {
				f.findFn = func(ctx context.Context, id string) ([]registration.WithSummary, error) {
					return []registration.WithSummary{
						{Registration: registration.New(id, newUUID())},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "no_registrations",
			url:  "/registrations/event/" + eventID,
			svcSetup: func(f *fakeRegistrationsService) {
				f.findFn = func(ctx context.Context, id string) ([]registration.WithSummary, error) {
					return nil, registration.ErrNoRegistrations
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "event_missing",
			url:  "/registrations/event/" + eventID,
			svcSetup: func(f *fakeRegistrationsService) {
				f.findFn = func(ctx context.Context, id string) ([]registration.WithSummary, error) {
					return nil, event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_event_id",
			url:            "/registrations/event/42",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRegistrationsService{}

			if tt.svcSetup != nil {
				tt.svcSetup(svc)
			}

			h := handlers.NewRegistrationHandler(svc)
			r := setupRouter(http.MethodGet, "/registrations/event/:eventId", h.ListForEvent)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRegistrationStatsHandler(t *testing.T) {
	eventID := newUUID()

	svc := &fakeRegistrationsService{}
	svc.statsFn = func(ctx context.Context, id string) (capacity.Stats, error) {
		if id != eventID {
			return capacity.Stats{}, event.ErrNotFound
		}
		return capacity.Compute(10, 10), nil
	}

	h := handlers.NewRegistrationHandler(svc)
	r := setupRouter(http.MethodGet, "/registrations/stats/:eventId", h.Stats)

	req := httptest.NewRequest(http.MethodGet, "/registrations/stats/"+eventID, nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var stats capacity.Stats

	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if !stats.FullyBooked || stats.AvailableSpots != 0 {
		t.Fatalf("got stats %+v, want fully booked", stats)
	}

	// unknown event maps to 404
	req = httptest.NewRequest(http.MethodGet, "/registrations/stats/"+newUUID(), nil)
	w = httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}

func TestCancelRegistrationHandler(t *testing.T) {
	regID := newUUID()

	tests := []struct {
		name           string
		url            string
		svcSetup       func(*fakeRegistrationsService)
		wantStatusCode int
	}{
		{
			name:           "success",
			url:            "/registrations/" + regID,
			wantStatusCode: http.StatusNoContent,
		},
		{
			name: "not_found",
			url:  "/registrations/" + newUUID(),
			svcSetup: func(f *fakeRegistrationsService) {
				f.removeFn = func(ctx context.Context, id string) error {
					return registration.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_id",
			url:            "/registrations/42",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRegistrationsService{}

			if tt.svcSetup != nil {
				tt.svcSetup(svc)
			}

			h := handlers.NewRegistrationHandler(svc)
			r := setupRouter(http.MethodDelete, "/registrations/:id", h.Cancel)

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusNoContent && svc.lastCancel != regID {
				t.Fatalf("cancelled %q, want %q", svc.lastCancel, regID)
			}
		})
	}
}
