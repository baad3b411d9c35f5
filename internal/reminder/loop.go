package reminder

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pathakanu/medMemo/internal/model"
	"github.com/pathakanu/medMemo/internal/notify"
	"github.com/robfig/cron/v3"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 30 * time.Second

const (
	titleDue     = "Time to take medication"
	titleAdvance = "Upcoming medication"
)

// Source provides a point-in-time copy of the medications to check.
type Source interface {
	Snapshot() []model.Medication
}

// Recorder persists dispatch attempts.
type Recorder interface {
	Record(ctx context.Context, d model.Dispatch) error
}

// Summarizer shortens medication notes for notification bodies.
type Summarizer interface {
	SummarizeNotes(ctx context.Context, notes string) (string, error)
}

// Loop periodically compares the wall-clock minute with every medication's
// schedule and sends notifications on exact matches.
type Loop struct {
	source     Source
	notifier   notify.Notifier
	recorder   Recorder
	summarizer Summarizer
	clock      func() time.Time
	location   *time.Location
	interval   time.Duration
	logger     *log.Logger
	enabled    atomic.Bool

	tickMu      sync.Mutex
	fired       map[string]struct{}
	firedMinute string

	runMu  sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// Option customises a Loop.
type Option func(*Loop)

// WithClock replaces time.Now, letting tests simulate exact minutes.
func WithClock(clock func() time.Time) Option {
	return func(l *Loop) { l.clock = clock }
}

// WithLocation sets the zone the current minute is computed in.
func WithLocation(loc *time.Location) Option {
	return func(l *Loop) {
		if loc != nil {
			l.location = loc
		}
	}
}

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithRecorder stores every dispatch attempt.
func WithRecorder(r Recorder) Option {
	return func(l *Loop) { l.recorder = r }
}

// WithSummarizer appends summarised notes to notification bodies.
func WithSummarizer(s Summarizer) Option {
	return func(l *Loop) { l.summarizer = s }
}

// WithEnabled sets the initial state of the notifications toggle.
func WithEnabled(enabled bool) Option {
	return func(l *Loop) { l.enabled.Store(enabled) }
}

// New creates a loop reading from source and delivering through notifier.
// Notifications start enabled.
func New(source Source, notifier notify.Notifier, opts ...Option) *Loop {
	l := &Loop{
		source:   source,
		notifier: notifier,
		clock:    time.Now,
		location: time.Local,
		interval: DefaultInterval,
		logger:   log.New(io.Discard, "", 0),
		fired:    make(map[string]struct{}),
	}
	l.enabled.Store(true)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetEnabled switches notifications on or off. The change is observed at the
// start of the next tick.
func (l *Loop) SetEnabled(enabled bool) {
	l.enabled.Store(enabled)
}

// Enabled reports whether notifications are on.
func (l *Loop) Enabled() bool {
	return l.enabled.Load()
}

// Interval returns the polling interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Location returns the zone used for minute matching.
func (l *Loop) Location() *time.Location {
	return l.location
}

// Tick runs a single check and returns the number of notifications attempted.
// A medication produces at most one notification of each kind per minute, no
// matter how often Tick runs within that minute.
func (l *Loop) Tick(ctx context.Context) int {
	if !l.Enabled() {
		return 0
	}

	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	now := l.clock().In(l.location)
	minute := now.Format("15:04")
	stamp := now.Format("2006-01-02 15:04")
	if stamp != l.firedMinute {
		l.fired = make(map[string]struct{})
		l.firedMinute = stamp
	}

	sent := 0
	for _, m := range Matches(l.source.Snapshot(), minute) {
		if ctx.Err() != nil {
			break
		}
		key := m.Medication.ID + "|" + string(m.Kind)
		if _, done := l.fired[key]; done {
			continue
		}
		l.fired[key] = struct{}{}
		l.dispatch(ctx, m, stamp)
		sent++
	}
	return sent
}

func (l *Loop) dispatch(ctx context.Context, m Match, stamp string) {
	title, message := l.compose(ctx, m)

	entry := model.Dispatch{
		MedicationID: m.Medication.ID,
		Kind:         m.Kind,
		Title:        title,
		Message:      message,
		Minute:       stamp,
		Delivered:    true,
	}
	if err := l.notifier.Notify(ctx, title, message); err != nil {
		l.logger.Printf("reminder: notify %s (%s): %v", m.Medication.ID, m.Kind, err)
		entry.Delivered = false
		entry.Error = err.Error()
	}

	if l.recorder == nil {
		return
	}
	if err := l.recorder.Record(ctx, entry); err != nil {
		l.logger.Printf("reminder: %v", err)
	}
}

func (l *Loop) compose(ctx context.Context, m Match) (string, string) {
	med := m.Medication
	var title, message string
	switch m.Kind {
	case model.DispatchAdvance:
		title = titleAdvance
		message = fmt.Sprintf("%s (%s) is due in %d minutes at %s", med.Name, med.Dosage, m.MinutesBefore, med.Time)
	default:
		title = titleDue
		message = fmt.Sprintf("Take %s (%s) now", med.Name, med.Dosage)
	}

	if note := l.note(ctx, med.Notes); note != "" {
		message += ". Note: " + note
	}
	return title, message
}

func (l *Loop) note(ctx context.Context, notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" || l.summarizer == nil {
		return notes
	}
	summary, err := l.summarizer.SummarizeNotes(ctx, notes)
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			l.logger.Printf("reminder: summarise notes: %v", err)
		}
		return notes
	}
	return strings.TrimSpace(summary)
}

// Start schedules Tick every polling interval until Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if l.cron != nil {
		return fmt.Errorf("reminder loop already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(
		cron.WithLocation(l.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(l.logger))),
	)
	c.Schedule(cron.Every(l.interval), cron.FuncJob(func() {
		l.Tick(runCtx)
	}))
	c.Start()

	l.cron = c
	l.cancel = cancel
	l.logger.Printf("reminder: checking every %s in %s", l.interval, l.location)
	return nil
}

// Stop cancels the schedule and waits for a running tick to finish.
func (l *Loop) Stop() {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if l.cron == nil {
		return
	}
	l.cancel()
	<-l.cron.Stop().Done()
	l.cron = nil
	l.cancel = nil
}
