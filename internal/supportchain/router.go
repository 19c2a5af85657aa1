package supportchain

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"deskbot/internal/llm"
)

const (
	routerTemperature = 0.1
	routerMaxTokens   = 512

	statusCheckConfidence = 0.95
	defaultConfidence     = 0.5
)

// ticketRefPattern matches ticket codes like IT-1234 anywhere in the text.
var ticketRefPattern = regexp.MustCompile(`(?i)\b(IT-\d{3,})\b`)

// Router turns raw question text into a Classification. It never returns
// an error: classification failures degrade to a default quick_fix so the
// pipeline always proceeds to attempt a solution.
type Router struct {
	provider llm.Provider
}

// NewRouter builds a Router on the given provider.
func NewRouter(provider llm.Provider) *Router {
	return &Router{provider: provider}
}

// Classify routes a question. Text starting with the command prefix is the
// orchestrator's job and never reaches here.
func (r *Router) Classify(ctx context.Context, question string) Classification {
	// Ticket references short-circuit the model call entirely.
	if ref := ticketRefPattern.FindString(question); ref != "" {
		return Classification{
			Kind:       IntentStatusCheck,
			Confidence: statusCheckConfidence,
			Reasoning:  "ticket reference found in text",
			Priority:   PriorityMedium,
			TicketRef:  strings.ToUpper(ref),
		}
	}

	out, err := r.provider.Complete(ctx, llm.Request{
		System:      routerSystemPrompt,
		User:        question,
		Temperature: routerTemperature,
		MaxTokens:   routerMaxTokens,
	})
	if err != nil {
		log.Printf("[router] classification call failed: %v, defaulting to quick_fix", err)
		return defaultClassification()
	}

	cls, err := parseClassificationJSON(out)
	if err != nil {
		log.Printf("[router] malformed classification output: %v, defaulting to quick_fix", err)
		return defaultClassification()
	}
	return cls
}

// defaultClassification is the recovery value for any router failure.
func defaultClassification() Classification {
	return Classification{
		Kind:       IntentQuickFix,
		Confidence: defaultConfidence,
		Reasoning:  "classifier unavailable",
		Priority:   PriorityMedium,
	}
}

// rawClassification is the wire shape the model is asked to produce.
type rawClassification struct {
	Intent       string  `json:"intent"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
	Category     string  `json:"category"`
	Priority     string  `json:"priority"`
	TicketNumber string  `json:"ticket_number"`
}

// parseClassificationJSON extracts a Classification from model output.
// Direct parse first; otherwise scan for the first decodable JSON object,
// which handles markdown fences and surrounding prose.
func parseClassificationJSON(text string) (Classification, error) {
	var raw rawClassification
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		return validateRaw(raw)
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(text[i:])))
		if err := dec.Decode(&raw); err == nil {
			return validateRaw(raw)
		}
	}

	return Classification{}, errTruncated(text)
}

func validateRaw(raw rawClassification) (Classification, error) {
	kind := IntentKind(strings.ToLower(strings.TrimSpace(raw.Intent)))
	if !validIntent(kind) {
		return Classification{}, errUnknownIntent(raw.Intent)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return Classification{}, errBadConfidence(raw.Confidence)
	}

	priority := Priority(strings.TrimSpace(raw.Priority))
	if !validPriority(priority) {
		priority = PriorityMedium
	}

	cls := Classification{
		Kind:       kind,
		Confidence: raw.Confidence,
		Reasoning:  strings.TrimSpace(raw.Reasoning),
		Category:   strings.TrimSpace(raw.Category),
		Priority:   priority,
	}
	// TicketRef only accompanies status checks; drop it otherwise so the
	// classification invariant holds regardless of what the model emitted.
	if kind == IntentStatusCheck {
		cls.TicketRef = strings.ToUpper(strings.TrimSpace(raw.TicketNumber))
	}
	return cls, nil
}
