package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pathakanu/medMemo/internal/model"
	"github.com/pathakanu/medMemo/internal/store"
)

// Toggle reads and writes the global notifications switch.
type Toggle interface {
	Enabled() bool
	SetEnabled(bool)
}

// History lists recent notification attempts.
type History interface {
	Recent(ctx context.Context, limit int) ([]model.Dispatch, error)
}

// Options configures the HTTP handler.
type Options struct {
	Store   *store.Store
	Toggle  Toggle
	History History // optional
	Logger  *log.Logger

	// Webhook, when set, receives Twilio WhatsApp messages.
	Webhook http.Handler

	// ReminderZone is the zone the reminder loop compares in. It is reported
	// by the settings endpoint and cannot be changed there.
	ReminderZone *time.Location
}

// Server exposes the medication store over HTTP.
type Server struct {
	store   *store.Store
	toggle  Toggle
	history History
	webhook http.Handler
	logger  *log.Logger
	zone    *time.Location

	mu              sync.RWMutex
	displayTimezone string
}

// New builds a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	zone := opts.ReminderZone
	if zone == nil {
		zone = time.Local
	}
	return &Server{
		store:           opts.Store,
		toggle:          opts.Toggle,
		history:         opts.History,
		webhook:         opts.Webhook,
		logger:          logger,
		zone:            zone,
		displayTimezone: zone.String(),
	}
}

// Handler returns the router for every endpoint.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/medications", func(mr chi.Router) {
		mr.Get("/", s.listMedications)
		mr.Post("/", s.addMedication)
		mr.Get("/{id}", s.getMedication)
		mr.Patch("/{id}", s.updateMedication)
		mr.Delete("/{id}", s.deleteMedication)
		mr.Post("/{id}/toggle-status", s.toggleStatus)
		mr.Post("/{id}/toggle-reminder", s.toggleReminder)
	})

	r.Get("/settings", s.getSettings)
	r.Put("/settings", s.putSettings)
	r.Get("/notifications", s.listNotifications)

	if s.webhook != nil {
		r.Method(http.MethodPost, "/twilio/webhook", s.webhook)
	}

	return r
}

type medicationResponse struct {
	model.Medication
	Warning string `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondMutation(w http.ResponseWriter, status int, med model.Medication, err error) {
	if err == nil {
		writeJSON(w, status, medicationResponse{Medication: med})
		return
	}
	if errors.Is(err, store.ErrPersistence) {
		// The change is live in memory; only the file mirror is stale.
		writeJSON(w, status, medicationResponse{Medication: med, Warning: "changes could not be saved to disk"})
		return
	}
	s.respondError(w, err)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Printf("api: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimit(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
