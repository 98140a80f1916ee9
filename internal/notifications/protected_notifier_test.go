package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeNotifier struct {
	calls  int
	sendFn func(ctx context.Context) error
}

func (f *fakeNotifier) SendAttendeeConfirmation(ctx context.Context, _ AttendeeConfirmationInput) error {
	f.calls++
	if f.sendFn != nil {
		return f.sendFn(ctx)
	}
	return nil
}

func newTestProtected(inner Notifier, now *time.Time) *ProtectedNotifier {
	p := NewProtectedNotifier(inner, slog.New(slog.NewTextHandler(io.Discard, nil)), ProtectedNotifierConfig{
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})
	p.now = func() time.Time { return *now }
	return p
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	boom := errors.New("boom")
	inner := &fakeNotifier{sendFn: func(context.Context) error { return boom }}
	p := newTestProtected(inner, &now)

	for i := 0; i < 2; i++ {
		if err := p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{}); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected inner error, got %v", i, err)
		}
	}

	if p.State() != CircuitOpen {
		t.Fatalf("expected open circuit, got %s", p.State())
	}

	if err := p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit must not call the provider, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenTrialCloses(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fail := true
	inner := &fakeNotifier{sendFn: func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	}}
	p := newTestProtected(inner, &now)

	_ = p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{})
	_ = p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{})

	now = now.Add(2 * time.Minute)
	fail = false

	if err := p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{}); err != nil {
		t.Fatalf("expected trial call to pass, got %v", err)
	}
	if p.State() != CircuitClosed {
		t.Fatalf("expected closed circuit, got %s", p.State())
	}
}

func TestProtectedNotifier_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &fakeNotifier{sendFn: func(context.Context) error { return errors.New("down") }}
	p := newTestProtected(inner, &now)

	_ = p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{})
	_ = p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{})

	now = now.Add(2 * time.Minute)
	_ = p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{})

	if p.State() != CircuitOpen {
		t.Fatalf("expected reopened circuit, got %s", p.State())
	}
	if inner.calls != 3 {
		t.Fatalf("expected exactly one trial call, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_EnforcesTimeout(t *testing.T) {
	now := time.Now()
	inner := &fakeNotifier{sendFn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	p := newTestProtected(inner, &now)

	err := p.SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLogNotifier_SimulatedFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := NewLogNotifier(log, LogNotifierConfig{}).SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{Email: "a@b.c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := NewLogNotifier(log, LogNotifierConfig{Fail: true}).SendAttendeeConfirmation(context.Background(), AttendeeConfirmationInput{}); !errors.Is(err, ErrProviderDown) {
		t.Fatalf("expected ErrProviderDown, got %v", err)
	}
}
