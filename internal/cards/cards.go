// Package cards builds the Adaptive Card payloads the bot sends to Teams.
package cards

import (
	"fmt"
	"strings"

	"deskbot/internal/quickbase"
)

const schemaURL = "http://adaptivecards.io/schemas/adaptive-card.json"

// Card is an Adaptive Card payload ready for JSON encoding.
type Card map[string]any

func newCard(body []any, actions []any) Card {
	c := Card{
		"$schema": schemaURL,
		"type":    "AdaptiveCard",
		"version": "1.5",
		"body":    body,
	}
	if len(actions) > 0 {
		c["actions"] = actions
	}
	return c
}

var priorityIcons = map[string]string{
	"Critical": "🔴",
	"High":     "🟠",
	"Medium":   "🟡",
	"Low":      "🟢",
}

func priorityLabel(priority string) string {
	icon, ok := priorityIcons[priority]
	if !ok {
		icon = "⚪"
	}
	return icon + " " + priority
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Solution renders the bot's answer with feedback and escalation actions.
// The header tone tracks confidence. ticketNumber links the feedback
// actions to the tracking ticket; empty when ticket creation failed.
func Solution(solution, question, category string, confidence float64, offerEscalate bool, sources []string, ticketNumber string) Card {
	headerText := "💡 While IT reviews this, try:"
	headerColor := "warning"
	switch {
	case confidence >= 0.8:
		headerText = "💡 Here's what I found:"
		headerColor = "good"
	case confidence >= 0.6:
		headerText = "💡 This might help:"
		headerColor = "accent"
	}

	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   headerText,
			"weight": "Bolder",
			"size":   "Medium",
			"color":  headerColor,
		},
		map[string]any{
			"type":    "TextBlock",
			"text":    solution,
			"wrap":    true,
			"spacing": "Medium",
		},
	}

	if confidence < 0.7 {
		body = append(body, map[string]any{
			"type":     "TextBlock",
			"text":     "📋 A ticket has been created. IT will follow up if needed.",
			"wrap":     true,
			"isSubtle": true,
			"spacing":  "Medium",
			"size":     "Small",
		})
	}

	if len(sources) > 0 {
		body = append(body, map[string]any{
			"type":     "TextBlock",
			"text":     fmt.Sprintf("_Sources: %s_", strings.Join(sources, ", ")),
			"wrap":     true,
			"isSubtle": true,
			"spacing":  "Small",
			"size":     "Small",
		})
	}

	feedbackData := map[string]any{
		"action":   "solution_feedback",
		"helpful":  true,
		"question": truncate(question, 200),
	}
	if ticketNumber != "" {
		feedbackData["ticket_number"] = ticketNumber
	}
	actions := []any{
		map[string]any{
			"type":  "Action.Submit",
			"title": "✅ This helped",
			"style": "positive",
			"data":  feedbackData,
		},
	}
	if offerEscalate {
		actions = append(actions, map[string]any{
			"type":  "Action.Submit",
			"title": "🎫 Still need help",
			"data": map[string]any{
				"action":   "escalate_ticket",
				"question": truncate(question, 200),
				"category": category,
			},
		})
	}

	return newCard(body, actions)
}

// Welcome greets a conversation the bot was just added to.
func Welcome() Card {
	body := []any{
		map[string]any{
			"type": "Container",
			"items": []any{
				map[string]any{
					"type":                "TextBlock",
					"text":                "🎉 IT Support Bot is here!",
					"weight":              "Bolder",
					"size":                "Large",
					"horizontalAlignment": "Center",
				},
				map[string]any{
					"type":                "TextBlock",
					"text":                "I'm your IT assistant. I can help with common technical issues, create support tickets, and provide quick solutions.",
					"wrap":                true,
					"horizontalAlignment": "Center",
					"spacing":             "Medium",
				},
			},
		},
		map[string]any{
			"type":      "Container",
			"separator": true,
			"spacing":   "Large",
			"items": []any{
				map[string]any{
					"type":   "TextBlock",
					"text":   "**Available Commands:**",
					"weight": "Bolder",
					"size":   "Medium",
				},
				map[string]any{
					"type":  "FactSet",
					"facts": commandFacts(),
				},
			},
		},
	}
	actions := []any{
		map[string]any{
			"type":  "Action.Submit",
			"title": "Get Started",
			"style": "positive",
			"data":  map[string]any{"action": "help"},
		},
	}
	return newCard(body, actions)
}

func commandFacts() []any {
	return []any{
		map[string]any{"title": "/help", "value": "Show available commands"},
		map[string]any{"title": "/ticket", "value": "Create a new support ticket"},
		map[string]any{"title": "/status [ticket#]", "value": "Check ticket status"},
		map[string]any{"title": "/stats", "value": "View ticket statistics"},
	}
}

// Help lists the commands and what the bot can do.
func Help() Card {
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   "🤖 IT Support Bot Help",
			"weight": "Bolder",
			"size":   "Large",
		},
		map[string]any{
			"type":    "TextBlock",
			"text":    "Type your IT question in plain language and I'll suggest a fix. Every question is tracked with a ticket so nothing gets lost.",
			"wrap":    true,
			"spacing": "Small",
		},
		map[string]any{
			"type":  "FactSet",
			"facts": commandFacts(),
		},
	}
	actions := []any{
		map[string]any{
			"type":  "Action.Submit",
			"title": "Create Ticket",
			"data":  map[string]any{"action": "create_ticket_form"},
		},
	}
	return newCard(body, actions)
}

// TicketForm renders the new-ticket form, optionally prefilling fields.
func TicketForm(subject, description, category, priority string) Card {
	if category == "" {
		category = "General Support"
	}
	if priority == "" {
		priority = "Medium"
	}

	categoryChoices := make([]any, 0, len(quickbase.Categories))
	for _, c := range quickbase.Categories {
		categoryChoices = append(categoryChoices, map[string]any{"title": c, "value": c})
	}

	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   "🎫 Create Support Ticket",
			"weight": "Bolder",
			"size":   "Large",
		},
		map[string]any{
			"type":     "TextBlock",
			"text":     "Please provide details about your issue:",
			"wrap":     true,
			"isSubtle": true,
		},
		map[string]any{
			"type":        "Input.Text",
			"id":          "subject",
			"placeholder": "Brief description of the issue",
			"maxLength":   100,
			"isRequired":  true,
			"value":       subject,
			"errorMessage": "Subject is required",
		},
		map[string]any{
			"type":        "Input.Text",
			"id":          "description",
			"placeholder": "Detailed description, including any error messages",
			"maxLength":   500,
			"isMultiline": true,
			"isRequired":  true,
			"value":       description,
			"errorMessage": "Description is required",
		},
		map[string]any{
			"type":    "Input.ChoiceSet",
			"id":      "category",
			"style":   "compact",
			"value":   category,
			"choices": categoryChoices,
		},
		map[string]any{
			"type":  "Input.ChoiceSet",
			"id":    "priority",
			"style": "compact",
			"value": priority,
			"choices": []any{
				map[string]any{"title": "🔴 Critical", "value": "Critical"},
				map[string]any{"title": "🟠 High", "value": "High"},
				map[string]any{"title": "🟡 Medium", "value": "Medium"},
				map[string]any{"title": "🟢 Low", "value": "Low"},
			},
		},
		map[string]any{
			"type":        "Input.Text",
			"id":          "additional_info",
			"placeholder": "Any additional details or when the issue started",
			"maxLength":   300,
			"isMultiline": true,
		},
	}
	actions := []any{
		map[string]any{
			"type":  "Action.Submit",
			"title": "Submit Ticket",
			"style": "positive",
			"data":  map[string]any{"action": "create_ticket"},
		},
		map[string]any{
			"type":  "Action.Submit",
			"title": "Cancel",
			"data":  map[string]any{"action": "cancel"},
		},
	}
	return newCard(body, actions)
}

// Confirmation acknowledges a created ticket with its details.
func Confirmation(t *quickbase.Ticket) Card {
	body := []any{
		map[string]any{
			"type":  "Container",
			"style": "emphasis",
			"items": []any{
				map[string]any{
					"type":   "TextBlock",
					"text":   "✅ Ticket Created Successfully",
					"weight": "Bolder",
					"size":   "Large",
					"color":  "Good",
				},
				map[string]any{
					"type":     "TextBlock",
					"text":     fmt.Sprintf("Ticket #%s", t.TicketNumber),
					"size":     "Medium",
					"isSubtle": true,
				},
			},
		},
		map[string]any{
			"type":      "FactSet",
			"separator": true,
			"facts": []any{
				map[string]any{"title": "Subject:", "value": t.Subject},
				map[string]any{"title": "Priority:", "value": priorityLabel(t.Priority)},
				map[string]any{"title": "Category:", "value": t.Category},
				map[string]any{"title": "Status:", "value": t.Status},
				map[string]any{"title": "Due Date:", "value": t.DueDate},
			},
		},
		map[string]any{
			"type":    "TextBlock",
			"text":    "• IT has been notified of your request\n• You'll receive updates as we work on your ticket",
			"wrap":    true,
			"spacing": "Medium",
		},
	}
	actions := []any{
		map[string]any{
			"type":  "Action.OpenUrl",
			"title": "View in QuickBase",
			"url":   t.URL,
		},
		map[string]any{
			"type":  "Action.Submit",
			"title": "Check Status",
			"data": map[string]any{
				"action":        "check_status",
				"ticket_number": t.TicketNumber,
			},
		},
	}
	return newCard(body, actions)
}

// Status shows one ticket's current state.
func Status(t *quickbase.Ticket) Card {
	created := t.SubmittedDate
	if len(created) > 10 {
		created = created[:10]
	}
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   fmt.Sprintf("📋 Ticket %s", t.TicketNumber),
			"weight": "Bolder",
			"size":   "Medium",
		},
		map[string]any{
			"type": "FactSet",
			"facts": []any{
				map[string]any{"title": "Subject:", "value": t.Subject},
				map[string]any{"title": "Status:", "value": t.Status},
				map[string]any{"title": "Priority:", "value": priorityLabel(t.Priority)},
				map[string]any{"title": "Category:", "value": t.Category},
				map[string]any{"title": "Created:", "value": created},
			},
		},
	}
	actions := []any{
		map[string]any{
			"type":  "Action.OpenUrl",
			"title": "View in QuickBase",
			"url":   t.URL,
		},
	}
	return newCard(body, actions)
}

// TicketList summarizes a user's open tickets, at most five shown.
func TicketList(tickets []quickbase.Ticket) Card {
	items := make([]any, 0, 5)
	for i, t := range tickets {
		if i == 5 {
			break
		}
		items = append(items, map[string]any{
			"type":    "TextBlock",
			"text":    fmt.Sprintf("**%s** - %s - %s", t.TicketNumber, t.Status, truncate(t.Subject, 40)),
			"wrap":    true,
			"spacing": "Small",
		})
	}
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   fmt.Sprintf("📋 Your Open Tickets (%d)", len(tickets)),
			"weight": "Bolder",
			"size":   "Medium",
		},
		map[string]any{
			"type":  "Container",
			"items": items,
		},
	}
	return newCard(body, nil)
}

// Closed notifies a user that their ticket was closed, with resolution.
func Closed(t *quickbase.Ticket) Card {
	resolution := t.Resolution
	if resolution == "" {
		resolution = "No resolution details provided."
	}
	body := []any{
		map[string]any{
			"type":  "Container",
			"style": "emphasis",
			"items": []any{
				map[string]any{
					"type":   "TextBlock",
					"text":   "✅ Ticket Closed",
					"weight": "Bolder",
					"size":   "Large",
					"color":  "Good",
				},
				map[string]any{
					"type":     "TextBlock",
					"text":     fmt.Sprintf("Your ticket #%s has been resolved", t.TicketNumber),
					"size":     "Medium",
					"isSubtle": true,
					"wrap":     true,
				},
			},
		},
		map[string]any{
			"type":      "FactSet",
			"separator": true,
			"facts": []any{
				map[string]any{"title": "Subject:", "value": truncate(t.Subject, 50)},
				map[string]any{"title": "Category:", "value": t.Category},
				map[string]any{"title": "Priority:", "value": priorityLabel(t.Priority)},
				map[string]any{"title": "Status:", "value": "✅ Closed"},
			},
		},
		map[string]any{
			"type":      "Container",
			"separator": true,
			"spacing":   "Medium",
			"items": []any{
				map[string]any{"type": "TextBlock", "text": "**Resolution:**", "weight": "Bolder"},
				map[string]any{"type": "TextBlock", "text": truncate(resolution, 500), "wrap": true},
			},
		},
		map[string]any{
			"type":     "TextBlock",
			"text":     "If the issue persists, please create a new ticket.",
			"wrap":     true,
			"isSubtle": true,
			"size":     "Small",
			"spacing":  "Large",
		},
	}
	actions := []any{
		map[string]any{
			"type":  "Action.Submit",
			"title": "Create New Ticket",
			"data":  map[string]any{"action": "create_ticket_form"},
		},
	}
	if t.URL != "" {
		actions = append(actions, map[string]any{
			"type":  "Action.OpenUrl",
			"title": "View in QuickBase",
			"url":   t.URL,
		})
	}
	return newCard(body, actions)
}

// ITNotification alerts the IT channel about a newly escalated ticket.
func ITNotification(t *quickbase.Ticket) Card {
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   "🚨 New Support Ticket",
			"weight": "Bolder",
			"size":   "Medium",
			"color":  "Attention",
		},
		map[string]any{
			"type": "FactSet",
			"facts": []any{
				map[string]any{"title": "Ticket:", "value": t.TicketNumber},
				map[string]any{"title": "Subject:", "value": t.Subject},
				map[string]any{"title": "Priority:", "value": priorityLabel(t.Priority)},
				map[string]any{"title": "Category:", "value": t.Category},
				map[string]any{"title": "Submitted By:", "value": t.SubmittedBy},
				map[string]any{"title": "Due:", "value": t.DueDate},
			},
		},
	}
	actions := []any{
		map[string]any{
			"type":  "Action.OpenUrl",
			"title": "Open in QuickBase",
			"url":   t.URL,
		},
	}
	return newCard(body, actions)
}

// Statistics renders the ticket dashboard numbers.
func Statistics(s *quickbase.Stats) Card {
	facts := []any{
		map[string]any{"title": "Open tickets:", "value": fmt.Sprintf("%d", s.TotalOpen)},
		map[string]any{"title": "Resolved today:", "value": fmt.Sprintf("%d", s.ResolvedToday)},
	}
	for _, p := range []string{"Critical", "High", "Medium", "Low"} {
		facts = append(facts, map[string]any{
			"title": priorityLabel(p) + ":",
			"value": fmt.Sprintf("%d", s.ByPriority[p]),
		})
	}
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   "📊 Ticket Statistics",
			"weight": "Bolder",
			"size":   "Medium",
		},
		map[string]any{"type": "FactSet", "facts": facts},
	}
	return newCard(body, nil)
}

// FeedbackThanks acknowledges solution feedback.
func FeedbackThanks(helpful bool) Card {
	text := "📝 Feedback noted. A ticket was created for IT follow-up."
	color := "Accent"
	if helpful {
		text = "✅ Thanks for the feedback!"
		color = "Good"
	}
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   text,
			"weight": "Bolder",
			"color":  color,
		},
	}
	return newCard(body, nil)
}

// Cancelled replaces a form the user backed out of.
func Cancelled() Card {
	body := []any{
		map[string]any{
			"type": "TextBlock",
			"text": "Cancelled. Let me know if you need anything else!",
			"wrap": true,
		},
	}
	return newCard(body, nil)
}

// Notice renders a titled plain-text message, used for channel posts
// that carry no richer card.
func Notice(title, message string) Card {
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   title,
			"weight": "Bolder",
			"size":   "Medium",
		},
		map[string]any{
			"type": "TextBlock",
			"text": message,
			"wrap": true,
		},
	}
	return newCard(body, nil)
}

// Error tells the user something went wrong without losing them.
func Error(message string) Card {
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   "⚠️ " + message,
			"wrap":   true,
			"color":  "Attention",
			"weight": "Bolder",
		},
	}
	actions := []any{
		map[string]any{
			"type":  "Action.Submit",
			"title": "Create Ticket",
			"data":  map[string]any{"action": "create_ticket_form"},
		},
	}
	return newCard(body, actions)
}
