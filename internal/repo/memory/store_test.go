package memory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/eventdesk/internal/domain/attendee"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/domain/job"
	"github.com/geocoder89/eventdesk/internal/importer"
)

func seedEvent(t *testing.T, repo *EventsRepo, title string, capacity int, date time.Time) event.Event {
	t.Helper()

	e, err := repo.Create(context.Background(), event.New(title, "", date, "", capacity))
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return e
}

func register(repo *AttendeesRepo, eventID string, tickets int) (attendee.Attendee, error) {
	return repo.Register(context.Background(), attendee.RegisterRequest{
		EventID: eventID,
		Name:    "Sam",
		Tickets: &tickets,
	})
}

func TestRegister_CapacityScenario(t *testing.T) {
	s := NewStore()
	events := NewEventsRepo(s)
	attendees := NewAttendeesRepo(s)

	ev := seedEvent(t, events, "Gala", 10, time.Now())

	if _, err := register(attendees, ev.ID, 5); err != nil {
		t.Fatalf("register 5: %v", err)
	}
	if _, err := register(attendees, ev.ID, 3); err != nil {
		t.Fatalf("register 3: %v", err)
	}

	_, err := register(attendees, ev.ID, 3)

	var capErr *attendee.CapacityError
	if !errors.As(err, &capErr) || capErr.Available != 2 {
		t.Fatalf("expected CapacityError with available 2, got %v", err)
	}

	if _, err := register(attendees, ev.ID, 2); err != nil {
		t.Fatalf("register 2: %v", err)
	}

	capacity, sold, err := attendees.TicketSales(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("ticket sales: %v", err)
	}

	report := attendee.NewReport(capacity, sold, 0)
	if report.Sold != 10 || report.Available != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	// every accepted registration queued one confirmation job
	if n := len(NewJobsRepo(s).All()); n != 3 {
		t.Fatalf("expected 3 confirmation jobs, got %d", n)
	}
}

func TestRegister_ConcurrentRequestsNeverOversell(t *testing.T) {
	s := NewStore()
	ev := seedEvent(t, NewEventsRepo(s), "Popular", 25, time.Now())
	attendees := NewAttendeesRepo(s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = register(attendees, ev.ID, 1)
		}()
	}
	wg.Wait()

	_, sold, err := attendees.TicketSales(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("ticket sales: %v", err)
	}
	if sold != 25 {
		t.Fatalf("expected exactly 25 sold, got %d", sold)
	}
}

func TestRegister_UnknownEvent(t *testing.T) {
	_, err := register(NewAttendeesRepo(NewStore()), "missing", 1)
	if !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected event.ErrNotFound, got %v", err)
	}
}

func TestUpdateAttendee_SkipsCapacityCheck(t *testing.T) {
	s := NewStore()
	ev := seedEvent(t, NewEventsRepo(s), "Small", 2, time.Now())
	attendees := NewAttendeesRepo(s)

	a, err := register(attendees, ev.ID, 2)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	five := 5
	updated, err := attendees.Update(context.Background(), a.ID, attendee.UpdateRequest{Tickets: &five})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Tickets != 5 {
		t.Fatalf("expected 5 tickets, got %d", updated.Tickets)
	}

	capacity, sold, _ := attendees.TicketSales(context.Background(), ev.ID)
	if got := attendee.Available(capacity, sold); got != 0 {
		t.Fatalf("expected available floored at 0, got %d", got)
	}
}

func TestDeleteEvent_CascadesToAttendees(t *testing.T) {
	s := NewStore()
	events := NewEventsRepo(s)
	attendees := NewAttendeesRepo(s)

	ev := seedEvent(t, events, "Doomed", 5, time.Now())
	keep := seedEvent(t, events, "Kept", 5, time.Now())

	if _, err := register(attendees, ev.ID, 1); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := register(attendees, keep.ID, 1); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := events.Delete(context.Background(), ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := attendees.ListByEvent(context.Background(), ev.ID); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted event, got %v", err)
	}

	left, err := attendees.ListByEvent(context.Background(), keep.ID)
	if err != nil || len(left) != 1 {
		t.Fatalf("expected the other event's attendee to survive, got %v %v", left, err)
	}

	if err := events.Delete(context.Background(), ev.ID); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCreateBatch_IsAtomic(t *testing.T) {
	s := NewStore()
	events := NewEventsRepo(s)

	good := event.New("Good", "", time.Now(), "", 1)
	bad := event.New("Bad", "", time.Now(), "", 1)
	bad.Title = ""

	if err := events.CreateBatch(context.Background(), []event.Event{good, bad}); err == nil {
		t.Fatalf("expected batch to be rejected")
	}

	_, total, _ := events.List(context.Background(), event.ListEventsFilter{})
	if total != 0 {
		t.Fatalf("expected nothing persisted, got %d events", total)
	}
}

func TestList_FiltersAndOrdering(t *testing.T) {
	s := NewStore()
	events := NewEventsRepo(s)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedEvent(t, events, "Go Meetup", 0, base.AddDate(0, 2, 0))
	seedEvent(t, events, "Rust meetup", 0, base.AddDate(0, 1, 0))
	seedEvent(t, events, "Gala", 0, base)

	search := "MEETUP"
	got, total, err := events.List(context.Background(), event.ListEventsFilter{Search: &search})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || got[0].Title != "Rust meetup" || got[1].Title != "Go Meetup" {
		t.Fatalf("unexpected search result: %+v", got)
	}

	from := base.AddDate(0, 1, 0)
	got, _, _ = events.List(context.Background(), event.ListEventsFilter{From: &from, Limit: 1})
	if len(got) != 1 || got[0].Title != "Rust meetup" {
		t.Fatalf("unexpected from+limit result: %+v", got)
	}

	got, total, _ = events.List(context.Background(), event.ListEventsFilter{Offset: 5})
	if len(got) != 0 || total != 3 {
		t.Fatalf("expected empty page past the end, got %d items total=%d", len(got), total)
	}
}

func TestImportIntoStore_ReimportDuplicates(t *testing.T) {
	s := NewStore()
	events := NewEventsRepo(s)
	im := importer.New(events, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	csv := "Event Title,Date,Capacity\nGala,2024-03-01 18:00:00,50\nBad,not-a-date,1\n"

	for i := 0; i < 2; i++ {
		res := im.Import(context.Background(), strings.NewReader(csv))
		if res.Created != 1 || len(res.Errors) != 1 {
			t.Fatalf("import %d: unexpected result %+v", i, res)
		}
	}

	got, total, _ := events.List(context.Background(), event.ListEventsFilter{})
	if total != 2 {
		t.Fatalf("expected 2 events after importing twice, got %d", total)
	}
	if got[0].Capacity != 50 || !got[0].Date.Equal(time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected imported event: %+v", got[0])
	}
}

func TestJobsRepo_ClaimAndReschedule(t *testing.T) {
	s := NewStore()
	ev := seedEvent(t, NewEventsRepo(s), "Gala", 5, time.Now())
	if _, err := register(NewAttendeesRepo(s), ev.ID, 1); err != nil {
		t.Fatalf("register: %v", err)
	}

	repo := NewJobsRepo(s)

	j, err := repo.ClaimNext(context.Background(), "w1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if j.Status != job.StatusProcessing || j.LockedBy == nil || *j.LockedBy != "w1" {
		t.Fatalf("unexpected claimed job: %+v", j)
	}

	if _, err := repo.ClaimNext(context.Background(), "w2"); !errors.Is(err, job.ErrJobNotFound) {
		t.Fatalf("expected no second claim, got %v", err)
	}

	if err := repo.Reschedule(context.Background(), j.ID, time.Now().Add(time.Hour), "smtp down"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	if _, err := repo.ClaimNext(context.Background(), "w2"); !errors.Is(err, job.ErrJobNotFound) {
		t.Fatalf("expected future job not to be claimable, got %v", err)
	}

	all := repo.All()
	if all[0].Attempts != 1 || all[0].Status != job.StatusPending {
		t.Fatalf("unexpected job after reschedule: %+v", all[0])
	}
}
