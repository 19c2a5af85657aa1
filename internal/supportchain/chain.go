package supportchain

import (
	"context"
	"log"
	"strings"
)

// CommandPrefix marks bot commands; they bypass the chain entirely.
const CommandPrefix = "/"

// Chain is the orchestrator: command fast-path, then routing, then either
// a status-check short-circuit or response generation. Stateless per
// request and safe for concurrent use.
type Chain struct {
	router    *Router
	generator *Generator
}

// New assembles a Chain from its parts.
func New(router *Router, generator *Generator) *Chain {
	return &Chain{router: router, generator: generator}
}

// Process handles one user message and always returns a terminal Envelope.
func (c *Chain) Process(ctx context.Context, text string) Envelope {
	text = strings.TrimSpace(text)

	// Commands are handled by the command layer; no routing cost.
	if strings.HasPrefix(text, CommandPrefix) {
		return Envelope{Type: EnvelopeCommand}
	}

	cls := c.router.Classify(ctx, text)
	log.Printf("[chain] routed as %s (confidence %.2f)", cls.Kind, cls.Confidence)

	// Classify never errors today; keep the guard in case a future router
	// implementation does.
	if !validIntent(cls.Kind) {
		cls = defaultClassification()
	}

	// Pure status lookups pay no generation cost.
	if cls.Kind == IntentStatusCheck {
		return Envelope{
			Type:      EnvelopeStatusCheck,
			TicketRef: cls.TicketRef,
		}
	}

	resp := c.generator.Generate(ctx, text, cls)
	return Envelope{
		Type:            EnvelopeSolution,
		Response:        resp,
		OfferEscalation: true,
	}
}
