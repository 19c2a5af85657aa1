package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"deskbot/internal/cards"
	"deskbot/internal/quickbase"
	"deskbot/internal/store"
	"deskbot/internal/supportchain"
	"deskbot/internal/teams"
)

// activityDedup is an in-memory activity deduplication store (TTL 10 minutes).
var (
	activityDedup   = make(map[string]time.Time)
	activityDedupMu sync.Mutex
)

func activityMarkSeen(activityID string) bool {
	activityDedupMu.Lock()
	defer activityDedupMu.Unlock()
	now := time.Now()
	for id, t := range activityDedup {
		if now.Sub(t) > 10*time.Minute {
			delete(activityDedup, id)
		}
	}
	if _, seen := activityDedup[activityID]; seen {
		return false
	}
	activityDedup[activityID] = now
	return true
}

// handleMessages handles POST /api/messages, the Bot Framework endpoint.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var activity teams.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	switch activity.Type {
	case teams.ActivityMessage:
		s.handleMessageActivity(w, &activity)
	case teams.ActivityInvoke:
		s.handleInvokeActivity(w, &activity)
	case teams.ActivityConversationUpdate:
		s.handleConversationUpdate(w, &activity)
	default:
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (s *Server) handleMessageActivity(w http.ResponseWriter, activity *teams.Activity) {
	text := activity.CleanText()
	if text == "" {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "empty text"})
		return
	}

	// Teams redelivers on slow responses; drop duplicates by activity ID.
	if activity.ID != "" && !activityMarkSeen(activity.ID) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	// Respond to the Bot Framework immediately and process async.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.processMessage(ctx, activity, text)
	}()

	respondJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// processMessage runs one user message end to end.
func (s *Server) processMessage(ctx context.Context, activity *teams.Activity, text string) {
	s.resolveSender(ctx, activity)
	s.rememberConversation(ctx, activity)

	// Slash commands are a fast path with no model calls.
	if strings.HasPrefix(text, supportchain.CommandPrefix) {
		s.runCommand(ctx, activity, text)
		return
	}

	if err := s.connector.Typing(ctx, activity); err != nil {
		log.Printf("[bot] typing indicator failed: %v", err)
	}

	env := s.chain.Process(ctx, text)
	log.Printf("[bot] chain result: type=%s confidence=%.2f", env.Type, env.Confidence)

	switch env.Type {
	case supportchain.EnvelopeCommand:
		s.runCommand(ctx, activity, text)
	case supportchain.EnvelopeStatusCheck:
		s.answerStatusCheck(ctx, activity, env.TicketRef)
		s.recordInteraction(ctx, activity, text, string(supportchain.IntentStatusCheck), env.Confidence, "", "")
	default:
		s.deliverSolution(ctx, activity, text, env)
	}
}

// deliverSolution sends the answer card and always creates a tracking
// ticket. Confident answers are logged as Bot Assisted / Low priority;
// everything else lands in the IT queue as New.
func (s *Server) deliverSolution(ctx context.Context, activity *teams.Activity, question string, env supportchain.Envelope) {
	ticketStatus := quickbase.StatusBotAssisted
	ticketPriority := string(supportchain.PriorityLow)
	if env.NeedsHuman || env.Confidence < 0.5 {
		ticketStatus = quickbase.StatusNew
		ticketPriority = string(env.Priority)
	}

	// Ticket first so the solution card's feedback actions can carry its
	// number. A ticket failure never blocks the answer.
	ticketNumber := ""
	ticket, err := s.tickets.CreateTicket(ctx, quickbase.NewTicket{
		Subject:     quickbase.Subject(question),
		Description: buildTicketDescription(question, env.Solution, env.Sources, env.Confidence),
		Priority:    ticketPriority,
		Category:    env.Category,
		Status:      ticketStatus,
		UserEmail:   activity.UserEmail(),
		UserName:    userName(activity),
	})
	if err != nil {
		log.Printf("[bot] tracking ticket failed: %v", err)
	} else {
		ticketNumber = ticket.TicketNumber
		log.Printf("[bot] ticket created: %s (status: %s, priority: %s)", ticketNumber, ticketStatus, ticketPriority)
	}

	card := cards.Solution(env.Solution, question, env.Category, env.Confidence, env.OfferEscalation, env.Sources, ticketNumber)
	if err := s.connector.ReplyCard(ctx, activity, card); err != nil {
		log.Printf("[bot] solution card failed: %v", err)
		if err := s.connector.ReplyText(ctx, activity, env.Solution); err != nil {
			log.Printf("[bot] solution text fallback failed: %v", err)
		}
	}

	s.recordInteraction(ctx, activity, question, intentForEnvelope(env), env.Confidence, env.Category, ticketNumber)

	if ticket != nil && ticketStatus == quickbase.StatusNew && s.notifier != nil {
		s.notifier.TicketCreated(ticket)
	}
}

func (s *Server) answerStatusCheck(ctx context.Context, activity *teams.Activity, ticketRef string) {
	if ticketRef != "" {
		ticket, err := s.tickets.GetTicket(ctx, ticketRef)
		if err != nil {
			log.Printf("[bot] ticket lookup failed: %v", err)
			s.replyText(ctx, activity, "I couldn't reach the ticket system. Please try again in a moment.")
			return
		}
		if ticket == nil {
			s.replyText(ctx, activity, fmt.Sprintf("Ticket %s not found. Use /status to see your open tickets.", ticketRef))
			return
		}
		s.replyCard(ctx, activity, cards.Status(ticket))
		return
	}

	tickets, err := s.tickets.UserTickets(ctx, activity.UserEmail())
	if err != nil {
		log.Printf("[bot] user tickets lookup failed: %v", err)
		s.replyText(ctx, activity, "I couldn't reach the ticket system. Please try again in a moment.")
		return
	}
	if len(tickets) == 0 {
		s.replyText(ctx, activity, "You have no open tickets. Type your issue and I'll help!")
		return
	}
	s.replyCard(ctx, activity, cards.TicketList(tickets))
}

// runCommand handles the /slash commands.
func (s *Server) runCommand(ctx context.Context, activity *teams.Activity, text string) {
	parts := strings.Fields(text)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "/help":
		s.replyCard(ctx, activity, cards.Help())

	case "/ticket":
		s.replyCard(ctx, activity, cards.TicketForm("", "", "", ""))

	case "/status":
		ref := ""
		if len(parts) > 1 {
			ref = parts[1]
		}
		s.answerStatusCheck(ctx, activity, ref)

	case "/stats":
		stats, err := s.tickets.Stats(ctx)
		if err != nil {
			log.Printf("[bot] stats failed: %v", err)
			s.replyText(ctx, activity, "I couldn't gather ticket statistics right now.")
			return
		}
		s.replyCard(ctx, activity, cards.Statistics(stats))

	default:
		s.replyText(ctx, activity, fmt.Sprintf("Unknown command: %s. Try /help", cmd))
	}
}

// handleInvokeActivity handles Adaptive Card button clicks.
func (s *Server) handleInvokeActivity(w http.ResponseWriter, activity *teams.Activity) {
	var action invokeAction
	if len(activity.Value) > 0 {
		if err := json.Unmarshal(activity.Value, &action); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid action payload: %v", err))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.resolveSender(ctx, activity)
	s.rememberConversation(ctx, activity)

	switch action.Action {
	case "create_ticket":
		s.submitTicketForm(ctx, activity, action)

	case "escalate_ticket":
		question := action.Question
		if question == "" {
			question = "Issue not resolved"
		}
		category := action.Category
		if category == "" {
			category = "General Support"
		}
		form := cards.TicketForm(
			quickbase.Subject(question),
			question+"\n\n[User tried self-service but still needs help]",
			category,
			string(supportchain.PriorityMedium))
		s.updateCard(ctx, activity, form)

	case "solution_feedback":
		log.Printf("[bot] solution feedback: helpful=%t question=%.50s", action.Helpful, action.Question)
		if s.history != nil {
			if err := s.history.SetFeedback(ctx, activity.UserEmail(), action.Question, action.Helpful); err != nil {
				log.Printf("[bot] feedback store failed: %v", err)
			}
		}
		if action.Helpful && action.TicketNumber != "" {
			err := s.tickets.ResolveTicket(ctx, action.TicketNumber,
				"User confirmed the suggested solution worked.", "IT Support Bot")
			if err != nil {
				log.Printf("[bot] ticket resolve failed: %v", err)
			}
		}
		s.updateCard(ctx, activity, cards.FeedbackThanks(action.Helpful))

	case "check_status":
		if action.TicketNumber != "" {
			s.answerStatusCheck(ctx, activity, action.TicketNumber)
		}

	case "help", "create_ticket_form":
		if action.Action == "help" {
			s.replyCard(ctx, activity, cards.Help())
		} else {
			s.replyCard(ctx, activity, cards.TicketForm("", "", "", ""))
		}

	case "cancel":
		s.updateCard(ctx, activity, cards.Cancelled())

	default:
		log.Printf("[bot] unknown invoke action: %q", action.Action)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// submitTicketForm creates a ticket from the form the user filled in.
func (s *Server) submitTicketForm(ctx context.Context, activity *teams.Activity, action invokeAction) {
	subject := action.Subject
	if subject == "" {
		subject = "No Subject"
	}
	description := action.Description
	if action.AdditionalInfo != "" {
		description += "\n\nAdditional info: " + action.AdditionalInfo
	}
	priority := action.Priority
	if priority == "" {
		priority = string(supportchain.PriorityMedium)
	}
	category := action.Category
	if category == "" {
		category = "General Support"
	}

	ticket, err := s.tickets.CreateTicket(ctx, quickbase.NewTicket{
		Subject:     subject,
		Description: description,
		Priority:    priority,
		Category:    category,
		Status:      quickbase.StatusNew,
		UserEmail:   activity.UserEmail(),
		UserName:    userName(activity),
	})
	if err != nil {
		log.Printf("[bot] form ticket failed: %v", err)
		s.updateCard(ctx, activity, cards.Error("Failed to create the ticket. Please try again."))
		return
	}

	s.updateCard(ctx, activity, cards.Confirmation(ticket))
	if s.notifier != nil {
		s.notifier.TicketCreated(ticket)
	}
}

// handleConversationUpdate greets conversations the bot was added to.
func (s *Server) handleConversationUpdate(w http.ResponseWriter, activity *teams.Activity) {
	botID := ""
	if activity.Recipient != nil {
		botID = activity.Recipient.ID
	}
	for _, member := range activity.MembersAdded {
		if member.ID == botID {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.replyCard(ctx, activity, cards.Welcome())
			break
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveSender fills in the sender's address from the conversation
// roster when the activity only carries a display name. Without it
// tickets would record a Teams user ID that the ticket-closed webhook
// can never match back to a stored conversation.
func (s *Server) resolveSender(ctx context.Context, activity *teams.Activity) {
	if activity.From == nil || activity.From.Email != "" || strings.Contains(activity.From.Name, "@") {
		return
	}
	member, err := s.connector.UserInfo(ctx, activity, activity.From.ID)
	if err != nil {
		log.Printf("[bot] member lookup failed: %v", err)
		return
	}
	switch {
	case member.Email != "":
		activity.From.Email = member.Email
	case member.UPN != "":
		activity.From.Email = member.UPN
	}
}

// rememberConversation stores the conversation reference so the bot can
// reach this user proactively later.
func (s *Server) rememberConversation(ctx context.Context, activity *teams.Activity) {
	if s.history == nil {
		return
	}
	email := activity.UserEmail()
	if email == "" {
		return
	}
	if err := s.history.SaveRef(ctx, email, activity.Reference()); err != nil {
		log.Printf("[bot] conversation ref store failed: %v", err)
	}
}

func (s *Server) recordInteraction(ctx context.Context, activity *teams.Activity, question, intent string, confidence float64, category, ticketNumber string) {
	if s.history == nil {
		return
	}
	_, err := s.history.RecordInteraction(ctx, store.Interaction{
		UserEmail:    activity.UserEmail(),
		Question:     question,
		Intent:       intent,
		Confidence:   confidence,
		Category:     category,
		TicketNumber: ticketNumber,
	})
	if err != nil {
		log.Printf("[bot] interaction store failed: %v", err)
	}
}

func (s *Server) replyText(ctx context.Context, activity *teams.Activity, text string) {
	if err := s.connector.ReplyText(ctx, activity, text); err != nil {
		log.Printf("[bot] reply failed: %v", err)
	}
}

func (s *Server) replyCard(ctx context.Context, activity *teams.Activity, card any) {
	if err := s.connector.ReplyCard(ctx, activity, card); err != nil {
		log.Printf("[bot] card reply failed: %v", err)
	}
}

func (s *Server) updateCard(ctx context.Context, activity *teams.Activity, card any) {
	if err := s.connector.UpdateCard(ctx, activity, card); err != nil {
		log.Printf("[bot] card update failed: %v", err)
	}
}

func userName(activity *teams.Activity) string {
	if activity.From == nil || activity.From.Name == "" {
		return "Unknown User"
	}
	return activity.From.Name
}

func intentForEnvelope(env supportchain.Envelope) string {
	if env.NeedsHuman {
		return string(supportchain.IntentNeedsHuman)
	}
	return string(supportchain.IntentQuickFix)
}

// buildTicketDescription assembles the tracking ticket body.
func buildTicketDescription(question, solution string, sources []string, confidence float64) string {
	sourcesStr := "General Knowledge"
	if len(sources) > 0 {
		sourcesStr = strings.Join(sources, ", ")
	}
	if r := []rune(solution); len(r) > 500 {
		solution = string(r[:500]) + "..."
	}
	return fmt.Sprintf(`**User Question:**
%s

---
**Bot Response (Confidence: %.0f%%):**
%s

---
**Sources Used:** %s

---
*Auto-generated by IT Support Bot*`, question, confidence*100, solution, sourcesStr)
}
