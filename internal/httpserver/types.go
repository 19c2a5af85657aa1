package httpserver

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// invokeAction is the data block of an Adaptive Card Action.Submit.
type invokeAction struct {
	Action         string `json:"action"`
	Subject        string `json:"subject,omitempty"`
	Description    string `json:"description,omitempty"`
	Priority       string `json:"priority,omitempty"`
	Category       string `json:"category,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
	Question       string `json:"question,omitempty"`
	Helpful        bool   `json:"helpful,omitempty"`
	TicketNumber   string `json:"ticket_number,omitempty"`
}

// ticketClosedEvent is the webhook payload QuickBase sends when a ticket
// is closed. Some webhook configurations wrap it in a "data" field.
type ticketClosedEvent struct {
	TicketNumber string `json:"ticket_number"`
	Subject      string `json:"subject"`
	Status       string `json:"status"`
	Resolution   string `json:"resolution"`
	SubmittedBy  string `json:"submitted_by"`
	Category     string `json:"category"`
	Priority     string `json:"priority"`
}

type ticketClosedEnvelope struct {
	ticketClosedEvent
	Data []ticketClosedEvent `json:"data,omitempty"`
}

// event returns the effective payload, unwrapping the data array form.
func (e *ticketClosedEnvelope) event() ticketClosedEvent {
	if len(e.Data) > 0 {
		return e.Data[0]
	}
	return e.ticketClosedEvent
}
