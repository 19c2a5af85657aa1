package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"deskbot/internal/cards"
	"deskbot/internal/quickbase"
)

// handleTicketClosed handles POST /webhook/ticket-closed. QuickBase
// automation calls this when a ticket's status changes to Closed; the
// bot then notifies the submitter through their stored conversation.
func (s *Server) handleTicketClosed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.webhookSecret != "" {
		provided := r.Header.Get("X-QB-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.webhookSecret)) != 1 {
			log.Printf("[webhook] invalid webhook secret")
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var envelope ticketClosedEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	event := envelope.event()

	if event.Status != quickbase.StatusClosed {
		log.Printf("[webhook] ticket %s status is %q, skipping", event.TicketNumber, event.Status)
		respondJSON(w, http.StatusOK, map[string]string{"status": "skipped", "reason": "status not Closed"})
		return
	}
	if event.TicketNumber == "" {
		respondError(w, http.StatusBadRequest, "missing ticket_number")
		return
	}
	if event.SubmittedBy == "" {
		log.Printf("[webhook] no user email for ticket %s", event.TicketNumber)
		respondJSON(w, http.StatusOK, map[string]string{"status": "skipped", "reason": "no user email"})
		return
	}

	ref, err := s.history.Ref(r.Context(), event.SubmittedBy)
	if err != nil {
		log.Printf("[webhook] ref lookup failed for %s: %v", event.SubmittedBy, err)
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "partial", "ticket_number": event.TicketNumber, "notification_sent": false,
		})
		return
	}
	if ref == nil {
		log.Printf("[webhook] no stored conversation for %s", event.SubmittedBy)
		respondJSON(w, http.StatusOK, map[string]string{"status": "skipped", "reason": "user unknown to bot"})
		return
	}

	card := cards.Closed(&quickbase.Ticket{
		TicketNumber: event.TicketNumber,
		Subject:      event.Subject,
		Category:     event.Category,
		Priority:     event.Priority,
		Status:       event.Status,
		Resolution:   event.Resolution,
	})
	if err := s.connector.SendProactiveCard(r.Context(), *ref, card); err != nil {
		log.Printf("[webhook] proactive notification failed for %s: %v", event.TicketNumber, err)
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "partial", "ticket_number": event.TicketNumber, "notification_sent": false,
		})
		return
	}

	log.Printf("[webhook] closed-ticket notification sent for %s to %s", event.TicketNumber, event.SubmittedBy)
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "success", "ticket_number": event.TicketNumber, "notified": event.SubmittedBy,
	})
}
