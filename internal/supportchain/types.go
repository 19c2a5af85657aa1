// Package supportchain classifies incoming support questions and produces
// an answer for every one of them. The chain's contract is that it never
// dead-ends: whatever the upstream model calls do, the caller always gets
// back a non-empty, sendable result.
package supportchain

// IntentKind is the classified purpose of a user message.
type IntentKind string

const (
	IntentQuickFix    IntentKind = "quick_fix"
	IntentNeedsHuman  IntentKind = "needs_human"
	IntentStatusCheck IntentKind = "status_check"
	IntentCommand     IntentKind = "command"
)

func validIntent(k IntentKind) bool {
	switch k {
	case IntentQuickFix, IntentNeedsHuman, IntentStatusCheck, IntentCommand:
		return true
	}
	return false
}

// Priority is the suggested ticket priority.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

func validPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Classification is the router's decision for one message.
// TicketRef is set iff Kind == IntentStatusCheck and a reference was
// detected in the text.
type Classification struct {
	Kind       IntentKind
	Confidence float64
	Reasoning  string
	Category   string
	Priority   Priority
	TicketRef  string
}

// Response is a generated answer. Solution is never empty: the generator
// substitutes a fixed fallback when the model call fails.
type Response struct {
	Solution   string
	Confidence float64
	Category   string
	Priority   Priority
	NeedsHuman bool
	Sources    []string
}

// EnvelopeType discriminates the orchestrator's terminal outcomes.
type EnvelopeType string

const (
	EnvelopeCommand     EnvelopeType = "command"
	EnvelopeStatusCheck EnvelopeType = "status_check"
	EnvelopeSolution    EnvelopeType = "solution"
)

// Envelope is the normalized result handed to delivery and ticketing.
// Response fields are populated only when Type == EnvelopeSolution;
// TicketRef only when Type == EnvelopeStatusCheck.
type Envelope struct {
	Type      EnvelopeType
	TicketRef string
	Response
	OfferEscalation bool
}
