package supportchain

import (
	"context"
	"fmt"
	"log"
	"strings"

	"deskbot/internal/kb"
	"deskbot/internal/llm"
)

const (
	generatorTemperature = 0.3
	generatorMaxTokens   = 1024

	// Confidence reflects trust in curated content over open generation.
	kbConfidence       = 0.85
	generalConfidence  = 0.70
	fallbackConfidence = 0.3

	// Model output shorter than this is treated as a generation failure.
	minSolutionLength = 10

	defaultCategory = "General Support"

	sourceStaticKB = "Static KB"
	sourceGeneral  = "General Knowledge"
	sourceFallback = "Fallback"

	questionEchoLimit = 100
)

// Generator produces a Response for a classified question. The output
// solution is never empty: model failures yield the fixed fallback text.
type Generator struct {
	provider  llm.Provider
	knowledge *kb.KnowledgeBase
}

// NewGenerator builds a Generator.
func NewGenerator(provider llm.Provider, knowledge *kb.KnowledgeBase) *Generator {
	return &Generator{provider: provider, knowledge: knowledge}
}

// Generate answers the question using knowledge-base context when an entry
// matches, plus one model call. Category precedence is KB entry, then
// router suggestion, then the default; priority comes from the router.
func (g *Generator) Generate(ctx context.Context, question string, cls Classification) Response {
	var (
		kbContext  string
		kbCategory string
		sources    []string
	)

	if entry, ok := g.knowledge.Lookup(question); ok {
		kbContext = entry.Solution
		kbCategory = entry.Category
		sources = append(sources, sourceStaticKB)
		log.Printf("[generator] static KB match: %s", entry.Key)
	} else {
		sources = append(sources, sourceGeneral)
	}

	system, user := buildSolutionPrompt(question, kbContext)
	solution, err := g.provider.Complete(ctx, llm.Request{
		System:      system,
		User:        user,
		Temperature: generatorTemperature,
		MaxTokens:   generatorMaxTokens,
	})
	if err != nil || len(strings.TrimSpace(solution)) < minSolutionLength {
		if err != nil {
			log.Printf("[generator] generation call failed: %v, using fallback", err)
		} else {
			log.Printf("[generator] generation output too short (%d chars), using fallback", len(strings.TrimSpace(solution)))
		}
		return g.fallback(question, cls)
	}

	confidence := generalConfidence
	if kbContext != "" {
		confidence = kbConfidence
	}

	return Response{
		Solution:   solution,
		Confidence: confidence,
		Category:   firstNonEmpty(kbCategory, cls.Category, defaultCategory),
		Priority:   orDefaultPriority(cls.Priority),
		NeedsHuman: cls.Kind == IntentNeedsHuman,
		Sources:    sources,
	}
}

// fallback is the deterministic answer of last resort.
func (g *Generator) fallback(question string, cls Classification) Response {
	return Response{
		Solution:   fallbackSolution(question),
		Confidence: fallbackConfidence,
		Category:   firstNonEmpty(cls.Category, defaultCategory),
		Priority:   PriorityMedium,
		NeedsHuman: true,
		Sources:    []string{sourceFallback},
	}
}

// fallbackSolution embeds a truncated echo of the question so the user and
// the ticket both carry the original context.
func fallbackSolution(question string) string {
	return fmt.Sprintf(`I'm experiencing a temporary issue with my AI service, but here are some general steps that often help:

1. **Restart** the affected application or your computer
2. **Check** if others are experiencing the same issue
3. **Verify** your network connection
4. **Note** any error messages you see

A ticket has been created for IT to review your specific issue: "%s..."

An IT team member will follow up shortly.`, truncateRunes(question, questionEchoLimit))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orDefaultPriority(p Priority) Priority {
	if validPriority(p) {
		return p
	}
	return PriorityMedium
}
