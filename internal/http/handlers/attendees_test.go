package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/eventdesk/internal/domain/attendee"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/http/handlers"
)

type fakeAttendeesRepo struct {
	registerFn func(ctx context.Context, req attendee.RegisterRequest) (attendee.Attendee, error)
	listFn     func(ctx context.Context, eventID string) ([]attendee.Attendee, error)
	updateFn   func(ctx context.Context, id string, req attendee.UpdateRequest) (attendee.Attendee, error)
	salesFn    func(ctx context.Context, eventID string) (int, int, error)
}

func (f *fakeAttendeesRepo) Register(ctx context.Context, req attendee.RegisterRequest) (attendee.Attendee, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, req)
	}
	return attendee.NewFromRegisterRequest(req), nil
}

func (f *fakeAttendeesRepo) ListByEvent(ctx context.Context, eventID string) ([]attendee.Attendee, error) {
	if f.listFn != nil {
		return f.listFn(ctx, eventID)
	}
	return []attendee.Attendee{}, nil
}

func (f *fakeAttendeesRepo) Update(ctx context.Context, id string, req attendee.UpdateRequest) (attendee.Attendee, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return req.Apply(attendee.Attendee{ID: id, Name: "old", Tickets: 1}), nil
}

func (f *fakeAttendeesRepo) TicketSales(ctx context.Context, eventID string) (int, int, error) {
	if f.salesFn != nil {
		return f.salesFn(ctx, eventID)
	}
	return 0, 0, nil
}

func TestRegisterAttendeeHandler(t *testing.T) {
	eventID := newUUID()

	tests := []struct {
		name           string
		eventID        string
		body           string
		repoSetUp      func(*fakeAttendeesRepo)
		wantStatusCode int
		wantCode       string
		wantAvailable  *int
	}{
		{
			name:           "registered_with_default_ticket",
			eventID:        eventID,
			body:           `{"name":"  Ada  ","email":"ada@example.com"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:    "not_enough_tickets",
			eventID: eventID,
			body:    `{"name":"Ada","tickets":3}`,
			repoSetUp: func(f *fakeAttendeesRepo) {
				f.registerFn = func(ctx context.Context, req attendee.RegisterRequest) (attendee.Attendee, error) {
					return attendee.Attendee{}, &attendee.CapacityError{Available: 2}
				}
			},
			wantStatusCode: http.StatusConflict,
			wantCode:       "not_enough_tickets",
			wantAvailable:  intPtr(2),
		},
		{
			name:    "sold_out_reports_zero",
			eventID: eventID,
			body:    `{"name":"Ada"}`,
			repoSetUp: func(f *fakeAttendeesRepo) {
				f.registerFn = func(ctx context.Context, req attendee.RegisterRequest) (attendee.Attendee, error) {
					return attendee.Attendee{}, &attendee.CapacityError{Available: 0}
				}
			},
			wantStatusCode: http.StatusConflict,
			wantCode:       "not_enough_tickets",
			wantAvailable:  intPtr(0),
		},
		{
			name:    "event_not_found",
			eventID: eventID,
			body:    `{"name":"Ada"}`,
			repoSetUp: func(f *fakeAttendeesRepo) {
				f.registerFn = func(ctx context.Context, req attendee.RegisterRequest) (attendee.Attendee, error) {
					return attendee.Attendee{}, event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
			wantCode:       "not_found",
		},
		{
			name:           "blank_name",
			eventID:        eventID,
			body:           `{"name":"   "}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name:           "zero_tickets",
			eventID:        eventID,
			body:           `{"name":"Ada","tickets":0}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name:           "tickets_above_limit",
			eventID:        eventID,
			body:           `{"name":"Ada","tickets":1000001}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name:           "malformed_event_id",
			eventID:        "abc",
			body:           `{"name":"Ada"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_id",
		},
		{
			name:    "repo_error",
			eventID: eventID,
			body:    `{"name":"Ada"}`,
			repoSetUp: func(f *fakeAttendeesRepo) {
				f.registerFn = func(ctx context.Context, req attendee.RegisterRequest) (attendee.Attendee, error) {
					return attendee.Attendee{}, errors.New("tx aborted")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeAttendeesRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAttendeesHandler(repo, nil, nil)
			r := setupRouter(http.MethodPost, "/events/:id/attendees", h.Register)

			w := doJSON(r, http.MethodPost, "/events/"+tt.eventID+"/attendees", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var a attendee.Attendee
				if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if a.Name != "Ada" || a.Tickets != 1 || a.EventID != tt.eventID {
					t.Fatalf("unexpected attendee: %+v", a)
				}
				return
			}

			body := decodeError(t, w)
			if body.Error.Code != tt.wantCode {
				t.Fatalf("got code %q, want %q", body.Error.Code, tt.wantCode)
			}

			if tt.wantAvailable != nil {
				if body.Available == nil || *body.Available != *tt.wantAvailable {
					t.Fatalf("got available %v, want %d", body.Available, *tt.wantAvailable)
				}
			}
		})
	}
}

func TestListAttendeesHandler(t *testing.T) {
	eventID := newUUID()

	t.Run("lists_in_registration_order", func(t *testing.T) {
		repo := &fakeAttendeesRepo{
			listFn: func(ctx context.Context, id string) ([]attendee.Attendee, error) {
				return []attendee.Attendee{{ID: "a1", Name: "first"}, {ID: "a2", Name: "second"}}, nil
			},
		}

		h := handlers.NewAttendeesHandler(repo, nil, nil)
		r := setupRouter(http.MethodGet, "/events/:id/attendees", h.ListByEvent)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+eventID+"/attendees", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("got %d body=%s", w.Code, w.Body.String())
		}

		var body struct {
			Items []attendee.Attendee `json:"items"`
			Count int                 `json:"count"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &body)

		if body.Count != 2 || body.Items[0].Name != "first" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("missing_event", func(t *testing.T) {
		repo := &fakeAttendeesRepo{
			listFn: func(ctx context.Context, id string) ([]attendee.Attendee, error) {
				return nil, event.ErrNotFound
			},
		}

		h := handlers.NewAttendeesHandler(repo, nil, nil)
		r := setupRouter(http.MethodGet, "/events/:id/attendees", h.ListByEvent)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+eventID+"/attendees", nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("got %d, want 404", w.Code)
		}
	})
}

func TestUpdateAttendeeHandler(t *testing.T) {
	id := newUUID()

	tests := []struct {
		name           string
		body           string
		updateErr      error
		wantStatusCode int
	}{
		{name: "tickets_updated", body: `{"tickets":40}`, wantStatusCode: http.StatusOK},
		{name: "blank_name", body: `{"name":"  "}`, wantStatusCode: http.StatusBadRequest},
		{name: "invalid_email", body: `{"email":"not-an-email"}`, wantStatusCode: http.StatusBadRequest},
		{name: "tickets_beyond_integer_column", body: `{"tickets":2147483648}`, wantStatusCode: http.StatusBadRequest},
		{name: "not_found", body: `{"phone":"555"}`, updateErr: attendee.ErrNotFound, wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeAttendeesRepo{}
			if tt.updateErr != nil {
				repo.updateFn = func(ctx context.Context, id string, req attendee.UpdateRequest) (attendee.Attendee, error) {
					return attendee.Attendee{}, tt.updateErr
				}
			}

			h := handlers.NewAttendeesHandler(repo, nil, nil)
			r := setupRouter(http.MethodPut, "/attendees/:id", h.Update)

			w := doJSON(r, http.MethodPut, "/attendees/"+id, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestTicketsReportHandler(t *testing.T) {
	eventID := newUUID()

	tests := []struct {
		name  string
		query string
		want  attendee.Report
	}{
		{name: "with_price", query: "?price=12.5", want: attendee.Report{Sold: 8, Available: 2, Revenue: 100}},
		{name: "bad_price_is_zero", query: "?price=abc", want: attendee.Report{Sold: 8, Available: 2, Revenue: 0}},
		{name: "no_price", query: "", want: attendee.Report{Sold: 8, Available: 2, Revenue: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeAttendeesRepo{
				salesFn: func(ctx context.Context, id string) (int, int, error) {
					return 10, 8, nil
				},
			}

			h := handlers.NewAttendeesHandler(repo, nil, nil)
			r := setupRouter(http.MethodGet, "/events/:id/tickets", h.TicketsReport)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+eventID+"/tickets"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("got %d body=%s", w.Code, w.Body.String())
			}

			var got attendee.Report
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func intPtr(n int) *int { return &n }
