package reminder

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pathakanu/medMemo/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(hhmm string) *fakeClock {
	t, err := time.ParseInLocation("2006-01-02 15:04", "2026-10-19 "+hhmm, time.UTC)
	if err != nil {
		panic(err)
	}
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type staticSource []model.Medication

func (s staticSource) Snapshot() []model.Medication {
	return append([]model.Medication(nil), s...)
}

type sent struct {
	title   string
	message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{title: title, message: message})
	return r.err
}

func (r *recordingNotifier) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []model.Dispatch
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, d model.Dispatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, d)
	return m.err
}

type upperSummarizer struct{}

func (upperSummarizer) SummarizeNotes(_ context.Context, notes string) (string, error) {
	return strings.ToUpper(notes), nil
}

type failingSummarizer struct{}

func (failingSummarizer) SummarizeNotes(context.Context, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func med(id, at string, enabled bool, before int) model.Medication {
	return model.Medication{
		ID:        id,
		Name:      "Aspirin",
		Dosage:    "100mg",
		Time:      at,
		Frequency: "daily",
		Status:    model.StatusPending,
		ReminderSettings: model.ReminderSettings{
			Enabled:      enabled,
			RemindBefore: before,
		},
	}
}

func newTestLoop(source Source, n *recordingNotifier, clock *fakeClock, opts ...Option) *Loop {
	opts = append([]Option{WithClock(clock.Now), WithLocation(time.UTC)}, opts...)
	return New(source, n, opts...)
}

func TestTickDueNotification(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	clock := newFakeClock("09:00")
	l := newTestLoop(staticSource{med("med_1", "09:00", true, 0)}, n, clock)

	if got := l.Tick(context.Background()); got != 1 {
		t.Fatalf("Tick sent %d, want 1", got)
	}
	all := n.all()
	if len(all) != 1 || all[0].title != titleDue {
		t.Fatalf("unexpected notifications: %+v", all)
	}
	if !strings.Contains(all[0].message, "Aspirin") || !strings.Contains(all[0].message, "100mg") {
		t.Fatalf("message should name medication and dosage: %q", all[0].message)
	}
}

func TestTickAdvanceNotification(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	clock := newFakeClock("09:00")
	l := newTestLoop(staticSource{med("med_1", "09:10", true, 10)}, n, clock)

	if got := l.Tick(context.Background()); got != 1 {
		t.Fatalf("Tick sent %d, want 1", got)
	}
	all := n.all()
	if len(all) != 1 || all[0].title != titleAdvance || !strings.Contains(all[0].message, "10 minutes") {
		t.Fatalf("unexpected notifications: %+v", all)
	}
}

func TestTickWrapsAroundMidnight(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	clock := newFakeClock("23:58")
	l := newTestLoop(staticSource{med("med_1", "00:03", true, 5)}, n, clock)

	if got := l.Tick(context.Background()); got != 1 {
		t.Fatalf("Tick sent %d at 23:58, want 1", got)
	}
	if all := n.all(); all[0].title != titleAdvance {
		t.Fatalf("expected advance notification, got %+v", all)
	}
}

func TestTickAtMostOncePerMinute(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	clock := newFakeClock("09:00")
	l := newTestLoop(staticSource{med("med_1", "09:00", true, 0)}, n, clock)
	ctx := context.Background()

	// Two polls 30 seconds apart land in the same minute.
	l.Tick(ctx)
	clock.Advance(30 * time.Second)
	l.Tick(ctx)
	if got := len(n.all()); got != 1 {
		t.Fatalf("sent %d notifications within one minute, want 1", got)
	}

	clock.Advance(30 * time.Second)
	l.Tick(ctx)
	if got := len(n.all()); got != 1 {
		t.Fatalf("09:01 should not match, sent %d", got)
	}

	// Same minute on the next day fires again.
	clock.Advance(24*time.Hour - time.Minute)
	if got := l.Tick(ctx); got != 1 {
		t.Fatalf("next day Tick sent %d, want 1", got)
	}
}

func TestTickSkipsDisabledAndCompleted(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	clock := newFakeClock("09:00")

	completed := med("med_done", "09:00", true, 0)
	completed.Status = model.StatusCompleted
	disabledWithOffset := med("med_off", "09:10", false, 10)

	l := newTestLoop(staticSource{
		med("med_disabled", "09:00", false, 0),
		completed,
		disabledWithOffset,
	}, n, clock)

	for i := 0; i < 3; i++ {
		if got := l.Tick(context.Background()); got != 0 {
			t.Fatalf("iteration %d sent %d, want 0", i, got)
		}
		clock.Advance(time.Minute)
	}
}

func TestTickRespectsGlobalToggle(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	clock := newFakeClock("09:00")
	l := newTestLoop(staticSource{med("med_1", "09:00", true, 0)}, n, clock, WithEnabled(false))

	if got := l.Tick(context.Background()); got != 0 {
		t.Fatalf("disabled loop sent %d", got)
	}
	l.SetEnabled(true)
	if !l.Enabled() {
		t.Fatalf("expected loop enabled")
	}
	if got := l.Tick(context.Background()); got != 1 {
		t.Fatalf("enabled loop sent %d, want 1", got)
	}
}

func TestTickNotifierFailureDoesNotStopLoop(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{err: errors.New("platform unavailable")}
	rec := &memoryRecorder{err: errors.New("disk full")}
	var logs bytes.Buffer
	clock := newFakeClock("09:00")
	l := newTestLoop(staticSource{
		med("med_1", "09:00", true, 0),
		med("med_2", "09:00", true, 0),
	}, n, clock, WithRecorder(rec), WithLogger(log.New(&logs, "", 0)))

	if got := l.Tick(context.Background()); got != 2 {
		t.Fatalf("Tick attempted %d, want 2", got)
	}
	if len(rec.entries) != 2 || rec.entries[0].Delivered || rec.entries[0].Error == "" {
		t.Fatalf("expected failed dispatches recorded, got %+v", rec.entries)
	}
	if !strings.Contains(logs.String(), "platform unavailable") || !strings.Contains(logs.String(), "disk full") {
		t.Fatalf("expected failures logged, got %q", logs.String())
	}
}

func TestTickRecordsDispatch(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	rec := &memoryRecorder{}
	clock := newFakeClock("08:50")
	l := newTestLoop(staticSource{med("med_1", "09:00", true, 10)}, n, clock, WithRecorder(rec))

	l.Tick(context.Background())
	if len(rec.entries) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(rec.entries))
	}
	got := rec.entries[0]
	if got.MedicationID != "med_1" || got.Kind != model.DispatchAdvance || got.Minute != "2026-10-19 08:50" || !got.Delivered {
		t.Fatalf("unexpected dispatch %+v", got)
	}
}

func TestTickUsesConfiguredZone(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	clock := newFakeClock("03:30")
	kolkata := time.FixedZone("IST", 5*3600+30*60)
	l := New(staticSource{med("med_1", "09:00", true, 0)}, n, WithClock(clock.Now), WithLocation(kolkata))

	if got := l.Tick(context.Background()); got != 1 {
		t.Fatalf("03:30 UTC is 09:00 IST, Tick sent %d", got)
	}
}

func TestNotesAreSummarised(t *testing.T) {
	t.Parallel()
	clock := newFakeClock("09:00")
	m := med("med_1", "09:00", true, 0)
	m.Notes = "with food"

	n := &recordingNotifier{}
	newTestLoop(staticSource{m}, n, clock, WithSummarizer(upperSummarizer{})).Tick(context.Background())
	if msg := n.all()[0].message; !strings.HasSuffix(msg, "Note: WITH FOOD") {
		t.Fatalf("unexpected message %q", msg)
	}

	n = &recordingNotifier{}
	newTestLoop(staticSource{m}, n, clock, WithSummarizer(failingSummarizer{})).Tick(context.Background())
	if msg := n.all()[0].message; !strings.HasSuffix(msg, "Note: with food") {
		t.Fatalf("summariser failure should fall back to raw notes, got %q", msg)
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	clock := newFakeClock("09:00")
	l := newTestLoop(staticSource{med("med_1", "09:00", true, 0)}, n, clock, WithInterval(time.Second))

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Start(context.Background()); err == nil {
		t.Fatalf("expected error starting twice")
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(n.all()) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	l.Stop()
	l.Stop()

	if got := len(n.all()); got != 1 {
		t.Fatalf("scheduled loop sent %d notifications, want 1", got)
	}
}
