package quickbase

import (
	"fmt"
	"strings"
	"time"
)

// Field IDs in the tickets table schema.
const (
	fieldRecordID      = 3
	fieldTicketNumber  = 6
	fieldSubject       = 7
	fieldDescription   = 8
	fieldPriority      = 9
	fieldCategory      = 10
	fieldStatus        = 11
	fieldSubmittedDate = 12
	fieldDueDate       = 13
	fieldResolvedDate  = 14
	fieldResolution    = 15
	fieldTimeSpent     = 16
	fieldSubmittedBy   = 19
)

// Ticket statuses as stored in the tickets table.
const (
	StatusNew          = "New"
	StatusInProgress   = "In Progress"
	StatusAwaitingUser = "Awaiting User"
	StatusAwaitingIT   = "Awaiting IT"
	StatusBotAssisted  = "Bot Assisted"
	StatusResolved     = "Resolved"
	StatusClosed       = "Closed"
	StatusCancelled    = "Cancelled"
)

// Categories lists the category options available in the tickets table.
var Categories = []string{
	"Password Reset",
	"Software Installation",
	"Hardware Issue",
	"Network Connectivity",
	"Email Issues",
	"Teams/Office 365",
	"VPN Access",
	"Printer Problems",
	"File Access",
	"Security Concern",
	"New User Setup",
	"General Support",
	"Other",
}

// Ticket is a record from the tickets table.
type Ticket struct {
	TicketNumber  string `json:"ticket_number"`
	RecordID      string `json:"record_id"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	SubmittedDate string `json:"submitted_date"`
	DueDate       string `json:"due_date"`
	ResolvedDate  string `json:"resolved_date,omitempty"`
	Resolution    string `json:"resolution,omitempty"`
	SubmittedBy   string `json:"submitted_by"`
	URL           string `json:"url,omitempty"`
}

// NewTicket holds the fields needed to create a ticket.
type NewTicket struct {
	Subject     string
	Description string
	Priority    string
	Category    string
	Status      string
	UserEmail   string
	UserName    string
}

// Update holds the mutable fields for an existing ticket. Zero values
// are left untouched.
type Update struct {
	TicketNumber string
	Status       string
	Resolution   string
	TimeSpent    float64
}

// Stats is an aggregate view over the tickets table.
type Stats struct {
	TotalOpen          int            `json:"total_open"`
	ResolvedToday      int            `json:"total_resolved_today"`
	ByPriority         map[string]int `json:"by_priority"`
	BotResolutions     int            `json:"bot_resolutions"`
	EscalationsCreated int            `json:"escalations_created"`
}

// slaHours maps priority to the response-time SLA in hours.
var slaHours = map[string]int{
	"Critical": 4,
	"High":     8,
	"Medium":   24,
	"Low":      48,
}

// DueDate returns the SLA due date for a priority, skipping weekends.
func DueDate(priority string, now time.Time) time.Time {
	hours, ok := slaHours[priority]
	if !ok {
		hours = 24
	}
	due := now.Add(time.Duration(hours) * time.Hour)
	for due.Weekday() == time.Saturday || due.Weekday() == time.Sunday {
		due = due.Add(24 * time.Hour)
	}
	return due
}

// TicketNumber generates a timestamp-based ticket number.
func TicketNumber(now time.Time) string {
	return fmt.Sprintf("IT-%s", now.Format("20060102150405"))
}

// subjectStopwords are filler words dropped when deriving a subject line.
var subjectStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "been": true, "have": true, "has": true,
	"had": true, "i": true, "my": true, "me": true, "can't": true,
	"cannot": true, "won't": true, "please": true, "help": true, "need": true,
}

// Subject derives a concise ticket subject from the user's question.
func Subject(question string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(question)) {
		if subjectStopwords[w] {
			continue
		}
		kept = append(kept, w)
		if len(kept) == 7 {
			break
		}
	}
	subject := titleCase(strings.Join(kept, " "))
	if r := []rune(subject); len(r) > 50 {
		subject = string(r[:47]) + "..."
	}
	if subject == "" {
		return "IT Support Request"
	}
	return subject
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] -= 'a' - 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
