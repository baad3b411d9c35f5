package store

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pathakanu/medMemo/internal/model"
)

var (
	// ErrValidation is returned when supplied fields are missing or malformed.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when no medication has the requested id.
	ErrNotFound = errors.New("medication not found")
	// ErrPersistence wraps failures to read or write the JSON snapshot.
	ErrPersistence = errors.New("persistence error")
)

// MaxRemindBefore is the exclusive upper bound for the advance offset; a full
// day or more would land on or before the due minute itself.
const MaxRemindBefore = 24 * 60

// Filter selects a subset of medications for List.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
	// FilterToday currently matches every medication; records carry no date.
	FilterToday Filter = "today"
)

// ParseFilter maps user input to a Filter. An empty string means today.
func ParseFilter(value string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FilterToday, nil
	case FilterAll, FilterPending, FilterCompleted, FilterToday:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown filter %q", ErrValidation, value)
	}
}

// AddInput carries the fields accepted when creating a medication.
type AddInput struct {
	Name            string
	Dosage          string
	Time            string
	Frequency       string
	Notes           string
	ReminderEnabled bool
	RemindBefore    int
}

// Patch lists the fields to replace on update. Nil fields are left untouched.
type Patch struct {
	Name            *string
	Dosage          *string
	Time            *string
	Frequency       *string
	Notes           *string
	Status          *model.Status
	ReminderEnabled *bool
	RemindBefore    *int
}

// Store owns the medication records and mirrors them to a JSON file.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]model.Medication
	order  []string
	path   string
	now    func() time.Time
	newID  func(time.Time) string
	logger *log.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the clock used for ids and creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used to report persistence failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty store backed by the JSON file at path. Call Reload to
// populate it from disk.
func New(path string, opts ...Option) *Store {
	s := &Store{
		byID:   make(map[string]model.Medication),
		path:   path,
		now:    time.Now,
		newID:  generateID,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the JSON snapshot.
func (s *Store) Path() string {
	return s.path
}

// Add validates the input, stores a new pending medication and persists the store.
// When only persistence fails the returned medication is valid and the error
// wraps ErrPersistence.
func (s *Store) Add(in AddInput) (model.Medication, error) {
	med := model.Medication{
		Name:      in.Name,
		Dosage:    in.Dosage,
		Time:      in.Time,
		Frequency: in.Frequency,
		Notes:     in.Notes,
		Status:    model.StatusPending,
		ReminderSettings: model.ReminderSettings{
			Enabled:      in.ReminderEnabled,
			RemindBefore: in.RemindBefore,
		},
	}
	if strings.TrimSpace(med.Frequency) == "" {
		return model.Medication{}, fmt.Errorf("%w: frequency is required", ErrValidation)
	}
	if err := validate(med); err != nil {
		return model.Medication{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	med.CreatedAt = now
	med.ID = s.newID(now)
	for _, exists := s.byID[med.ID]; exists; _, exists = s.byID[med.ID] {
		med.ID = s.newID(now)
	}

	s.byID[med.ID] = med
	s.order = append(s.order, med.ID)
	return med, s.persistLocked()
}

// List returns the medications matching filter in insertion order.
func (s *Store) List(filter Filter) ([]model.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Medication, 0, len(s.order))
	for _, id := range s.order {
		med := s.byID[id]
		switch filter {
		case FilterAll, FilterToday:
		case FilterPending, FilterCompleted:
			if med.Status != model.Status(filter) {
				continue
			}
		default:
			return nil, fmt.Errorf("%w: unknown filter %q", ErrValidation, filter)
		}
		out = append(out, med)
	}
	return out, nil
}

// Snapshot returns a copy of every medication, safe to iterate while the
// store is being modified.
func (s *Store) Snapshot() []model.Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Medication, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Get returns the medication with the given id.
func (s *Store) Get(id string) (model.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	med, ok := s.byID[id]
	if !ok {
		return model.Medication{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return med, nil
}

// Update merges patch into the medication with the given id and persists the store.
func (s *Store) Update(id string, patch Patch) (model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, ok := s.byID[id]
	if !ok {
		return model.Medication{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := apply(med, patch)
	if patch.Frequency != nil && strings.TrimSpace(updated.Frequency) == "" {
		return model.Medication{}, fmt.Errorf("%w: frequency is required", ErrValidation)
	}
	if err := validate(updated); err != nil {
		return model.Medication{}, err
	}

	s.byID[id] = updated
	return updated, s.persistLocked()
}

// ToggleStatus flips a medication between pending and completed.
func (s *Store) ToggleStatus(id string) (model.Medication, error) {
	return s.modify(id, func(m *model.Medication) {
		if m.Status == model.StatusPending {
			m.Status = model.StatusCompleted
		} else {
			m.Status = model.StatusPending
		}
	})
}

// ToggleReminder switches reminders for a medication on or off.
func (s *Store) ToggleReminder(id string) (model.Medication, error) {
	return s.modify(id, func(m *model.Medication) {
		m.ReminderSettings.Enabled = !m.ReminderSettings.Enabled
	})
}

func (s *Store) modify(id string, fn func(*model.Medication)) (model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, ok := s.byID[id]
	if !ok {
		return model.Medication{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&med)
	s.byID[id] = med
	return med, s.persistLocked()
}

// Delete removes the medication with the given id and persists the store.
// It reports false together with ErrNotFound when nothing was removed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, s.persistLocked()
}

// Persist writes the whole store to its JSON file.
func (s *Store) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeSnapshot()
}

// Reload replaces the in-memory records with the contents of the JSON file.
// A missing file yields an empty store. A malformed file leaves the store
// unchanged and returns an error wrapping ErrPersistence.
func (s *Store) Reload() error {
	meds, err := readSnapshot(s.path)
	if err != nil {
		return err
	}

	sort.SliceStable(meds, func(i, j int) bool {
		if meds[i].CreatedAt.Equal(meds[j].CreatedAt) {
			return meds[i].ID < meds[j].ID
		}
		return meds[i].CreatedAt.Before(meds[j].CreatedAt)
	})

	byID := make(map[string]model.Medication, len(meds))
	order := make([]string, 0, len(meds))
	for _, med := range meds {
		byID[med.ID] = med
		order = append(order, med.ID)
	}

	s.mu.Lock()
	s.byID = byID
	s.order = order
	s.mu.Unlock()
	return nil
}

// persistLocked writes the snapshot while the caller holds the lock and logs
// failures, keeping the in-memory state authoritative.
func (s *Store) persistLocked() error {
	if err := s.writeSnapshot(); err != nil {
		s.logger.Printf("store: persist %s: %v", s.path, err)
		return err
	}
	return nil
}

func (s *Store) writeSnapshot() error {
	snapshot := make(map[string]model.Medication, len(s.byID))
	for id, med := range s.byID {
		snapshot[id] = med
	}
	return writeSnapshot(s.path, snapshot)
}

func apply(med model.Medication, patch Patch) model.Medication {
	if patch.Name != nil {
		med.Name = *patch.Name
	}
	if patch.Dosage != nil {
		med.Dosage = *patch.Dosage
	}
	if patch.Time != nil {
		med.Time = *patch.Time
	}
	if patch.Frequency != nil {
		med.Frequency = *patch.Frequency
	}
	if patch.Notes != nil {
		med.Notes = *patch.Notes
	}
	if patch.Status != nil {
		med.Status = *patch.Status
	}
	if patch.ReminderEnabled != nil {
		med.ReminderSettings.Enabled = *patch.ReminderEnabled
	}
	if patch.RemindBefore != nil {
		med.ReminderSettings.RemindBefore = *patch.RemindBefore
	}
	return med
}

func validate(med model.Medication) error {
	if strings.TrimSpace(med.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(med.Dosage) == "" {
		return fmt.Errorf("%w: dosage is required", ErrValidation)
	}
	if _, err := ParseClock(med.Time); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !med.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, med.Status)
	}
	if med.ReminderSettings.RemindBefore < 0 || med.ReminderSettings.RemindBefore >= MaxRemindBefore {
		return fmt.Errorf("%w: remind_before must be between 0 and %d minutes", ErrValidation, MaxRemindBefore-1)
	}
	return nil
}

// ParseClock parses an "HH:MM" time of day and returns minutes since midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil || len(value) != len("15:04") {
		return 0, fmt.Errorf("time %q must be HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func generateID(now time.Time) string {
	return fmt.Sprintf("med_%s_%s", now.Format("20060102150405"), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
