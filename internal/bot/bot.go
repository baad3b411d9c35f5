package bot

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/pathakanu/medMemo/internal/model"
	"github.com/pathakanu/medMemo/internal/store"
)

// Bot answers WhatsApp messages relayed by the Twilio webhook with short
// commands over the medication store.
type Bot struct {
	store  *store.Store
	logger *log.Logger
}

// New creates a Bot bound to medStore.
func New(medStore *store.Store, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Bot{store: medStore, logger: logger}
}

// Handler returns the HTTP handler for incoming Twilio messages.
func (b *Bot) Handler() http.HandlerFunc {
	return b.handleIncomingMessage
}

func (b *Bot) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.logger.Printf("webhook: parse error: %v", err)
		b.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	body := strings.TrimSpace(r.FormValue("Body"))
	if body == "" {
		b.writeTwilioResponse(w, "I need a message to work with. Send 'help' to see what I can do.")
		return
	}
	b.writeTwilioResponse(w, b.Reply(body))
}

var markCommandRegex = regexp.MustCompile(`(?i)^(taken|done|pending|undo)\s+(\d+)$`)

// Reply computes the answer to a single command message.
func (b *Bot) Reply(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))

	if lower == "help" {
		return helpResponse()
	}
	if lower == "list" || strings.HasPrefix(lower, "list ") {
		filter, err := store.ParseFilter(strings.TrimSpace(strings.TrimPrefix(lower, "list")))
		if err != nil {
			return "Filters are: today, pending, completed, all."
		}
		return b.listMedications(filter)
	}
	if m := markCommandRegex.FindStringSubmatch(lower); m != nil {
		index, _ := strconv.Atoi(m[2])
		status := model.StatusCompleted
		if m[1] == "pending" || m[1] == "undo" {
			status = model.StatusPending
		}
		return b.mark(index, status)
	}
	return "I didn't recognise that. " + helpResponse()
}

// listMedications renders the medications numbered in store order.
func (b *Bot) listMedications(filter store.Filter) string {
	meds, err := b.store.List(filter)
	if err != nil {
		b.logger.Printf("bot: list medications: %v", err)
		return "I couldn't load your medications right now."
	}
	if len(meds) == 0 {
		return "No medications found."
	}

	var sb strings.Builder
	sb.WriteString("Your medications:\n")
	for i, m := range meds {
		check := " "
		if m.Status == model.StatusCompleted {
			check = "x"
		}
		sb.WriteString(fmt.Sprintf("%d. [%s] %s - %s at %s\n", i+1, check, m.Name, m.Dosage, m.Time))
	}
	return sb.String()
}

// mark sets the status of the index-th medication of the today list (1-based).
func (b *Bot) mark(index int, status model.Status) string {
	meds, err := b.store.List(store.FilterToday)
	if err != nil {
		b.logger.Printf("bot: list medications: %v", err)
		return "I couldn't load your medications right now."
	}
	if index < 1 || index > len(meds) {
		return fmt.Sprintf("There is no medication number %d. Send 'list' to see them.", index)
	}

	med, err := b.store.Update(meds[index-1].ID, store.Patch{Status: &status})
	if err != nil && !errors.Is(err, store.ErrPersistence) {
		b.logger.Printf("bot: update %s: %v", meds[index-1].ID, err)
		return "I couldn't update that medication."
	}
	if status == model.StatusCompleted {
		return fmt.Sprintf("Marked %s as taken.", med.Name)
	}
	return fmt.Sprintf("Marked %s as pending.", med.Name)
}

func (b *Bot) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		b.logger.Printf("twilio response encode: %v", err)
	}
}

func helpResponse() string {
	return "You can say things like:\n- \"list\" or \"list pending\" to see medications\n- \"taken 2\" to mark the second one as taken\n- \"pending 2\" to undo that"
}
