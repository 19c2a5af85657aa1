package commands

import (
	"fmt"

	"deskbot/internal/config"
	"deskbot/internal/kb"
	"deskbot/internal/llm"
	"deskbot/internal/supportchain"
)

// buildProvider assembles the model provider stack: the OpenAI-compatible
// endpoint as primary, with Anthropic as failover when configured.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	if err := cfg.ValidateCore(); err != nil {
		return nil, err
	}

	primary := llm.NewOpenAIProvider(cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Model)
	if cfg.LLM.AnthropicAPIKey == "" {
		return primary, nil
	}
	secondary := llm.NewAnthropicProvider(cfg.LLM.AnthropicBaseURL, cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicModel)
	return llm.NewFailover(primary, secondary), nil
}

// buildKnowledge loads the knowledge base, honoring a file override.
func buildKnowledge(cfg *config.Config) (*kb.KnowledgeBase, error) {
	if cfg.KBPath != "" {
		knowledge, err := kb.LoadFile(cfg.KBPath)
		if err != nil {
			return nil, fmt.Errorf("load knowledge base %s: %w", cfg.KBPath, err)
		}
		return knowledge, nil
	}
	return kb.Default()
}

// buildChain assembles the full support chain from configuration.
func buildChain(cfg *config.Config) (*supportchain.Chain, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	knowledge, err := buildKnowledge(cfg)
	if err != nil {
		return nil, err
	}
	return supportchain.New(
		supportchain.NewRouter(provider),
		supportchain.NewGenerator(provider, knowledge),
	), nil
}
