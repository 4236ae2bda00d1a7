package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize clamps retrieval tuning values into their workable ranges.
func (c ContextConfig) Normalize() ContextConfig {
	cfg := c
	if cfg.QueryLimit <= 0 {
		cfg.QueryLimit = 5
	}
	if cfg.AdviceQueryLimit <= 0 {
		cfg.AdviceQueryLimit = 15
	}
	if cfg.PromptDocumentCap <= 0 {
		cfg.PromptDocumentCap = 10
	}
	if cfg.PromptDocumentCap > cfg.AdviceQueryLimit {
		cfg.PromptDocumentCap = cfg.AdviceQueryLimit
	}
	if cfg.EmbeddingDimensions <= 0 {
		cfg.EmbeddingDimensions = 768
	}
	return cfg
}

// Validate ensures the language-model backend configuration is usable.
func (c LLMConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "", "ollama":
	default:
		return fmt.Errorf("unsupported llm type %q", c.Type)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("llm.base_url required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid llm.base_url %q", c.BaseURL)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("llm.model required")
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return fmt.Errorf("llm.embedding_model required")
	}
	return nil
}
