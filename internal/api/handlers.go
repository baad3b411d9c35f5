package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pathakanu/medMemo/internal/model"
	"github.com/pathakanu/medMemo/internal/store"
)

type reminderSettingsRequest struct {
	Enabled      *bool `json:"enabled"`
	RemindBefore *int  `json:"remind_before"`
}

type addMedicationRequest struct {
	Name             string                  `json:"name"`
	Dosage           string                  `json:"dosage"`
	Time             string                  `json:"time"`
	Frequency        string                  `json:"frequency"`
	Notes            string                  `json:"notes"`
	ReminderSettings reminderSettingsRequest `json:"reminder_settings"`
}

// Pointers so a PATCH only touches what was sent.
type updateMedicationRequest struct {
	Name             *string                  `json:"name"`
	Dosage           *string                  `json:"dosage"`
	Time             *string                  `json:"time"`
	Frequency        *string                  `json:"frequency"`
	Notes            *string                  `json:"notes"`
	Status           *model.Status            `json:"status"`
	ReminderSettings *reminderSettingsRequest `json:"reminder_settings"`
}

type settingsResponse struct {
	NotificationsEnabled bool   `json:"notifications_enabled"`
	DisplayTimezone      string `json:"display_timezone"`
	ReminderTimezone     string `json:"reminder_timezone"`
}

type settingsRequest struct {
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	DisplayTimezone      *string `json:"display_timezone"`
}

func (s *Server) listMedications(w http.ResponseWriter, r *http.Request) {
	filter, err := store.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	meds, err := s.store.List(filter)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meds)
}

func (s *Server) addMedication(w http.ResponseWriter, r *http.Request) {
	var req addMedicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	in := store.AddInput{
		Name:      req.Name,
		Dosage:    req.Dosage,
		Time:      req.Time,
		Frequency: req.Frequency,
		Notes:     req.Notes,
	}
	if req.ReminderSettings.Enabled != nil {
		in.ReminderEnabled = *req.ReminderSettings.Enabled
	}
	if req.ReminderSettings.RemindBefore != nil {
		in.RemindBefore = *req.ReminderSettings.RemindBefore
	}

	med, err := s.store.Add(in)
	s.respondMutation(w, http.StatusCreated, med, err)
}

func (s *Server) getMedication(w http.ResponseWriter, r *http.Request) {
	med, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

func (s *Server) updateMedication(w http.ResponseWriter, r *http.Request) {
	var req updateMedicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	patch := store.Patch{
		Name:      req.Name,
		Dosage:    req.Dosage,
		Time:      req.Time,
		Frequency: req.Frequency,
		Notes:     req.Notes,
		Status:    req.Status,
	}
	if req.ReminderSettings != nil {
		patch.ReminderEnabled = req.ReminderSettings.Enabled
		patch.RemindBefore = req.ReminderSettings.RemindBefore
	}

	med, err := s.store.Update(chi.URLParam(r, "id"), patch)
	s.respondMutation(w, http.StatusOK, med, err)
}

func (s *Server) deleteMedication(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.Delete(chi.URLParam(r, "id"))
	if err != nil && !removed {
		s.respondError(w, err)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "warning": "changes could not be saved to disk"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleStatus(w http.ResponseWriter, r *http.Request) {
	med, err := s.store.ToggleStatus(chi.URLParam(r, "id"))
	s.respondMutation(w, http.StatusOK, med, err)
}

func (s *Server) toggleReminder(w http.ResponseWriter, r *http.Request) {
	med, err := s.store.ToggleReminder(chi.URLParam(r, "id"))
	s.respondMutation(w, http.StatusOK, med, err)
}

func (s *Server) settings() settingsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return settingsResponse{
		NotificationsEnabled: s.toggle.Enabled(),
		DisplayTimezone:      s.displayTimezone,
		ReminderTimezone:     s.zone.String(),
	}
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings())
}

// putSettings updates the notifications toggle and the display timezone. The
// display timezone is a preference only; reminders keep matching in the
// configured reminder zone.
func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	if req.DisplayTimezone != nil {
		name := strings.TrimSpace(*req.DisplayTimezone)
		if _, err := time.LoadLocation(name); err != nil || name == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown timezone"})
			return
		}
		s.mu.Lock()
		s.displayTimezone = name
		s.mu.Unlock()
	}
	if req.NotificationsEnabled != nil {
		s.toggle.SetEnabled(*req.NotificationsEnabled)
		s.logger.Printf("api: notifications enabled=%t", *req.NotificationsEnabled)
	}

	writeJSON(w, http.StatusOK, s.settings())
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []model.Dispatch{})
		return
	}
	dispatches, err := s.history.Recent(r.Context(), parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dispatches)
}
