package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"subcards/internal/enrich"
	"subcards/internal/language"
)

const translationSystemPrompt = `You translate subtitle lines for language learners.
You receive JSON of the form {"source_lang": "...", "target_lang": "...", "texts": ["..."]}.
Languages are given by name, optionally with a regional variant such as "English (UK)".
Translate every entry of "texts" into target_lang, keeping order and count.
Translate each line on its own; do not merge, split, or skip lines.
Respond with JSON only: {"translations": ["..."]}, one string per input text.`

type llmRequest struct {
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
	Texts      []string `json:"texts"`
}

type llmResponse struct {
	Translations []string `json:"translations"`
}

// LLM translates batches through a chat completion model.
type LLM struct {
	client     *ChatClient
	sourceLang string
}

// NewLLM returns a translator backed by client.
func NewLLM(client *ChatClient, sourceLang string) *LLM {
	return &LLM{client: client, sourceLang: strings.TrimSpace(sourceLang)}
}

// Name identifies the provider in cache rows and logs.
func (l *LLM) Name() string { return "llm" }

// Translate sends texts as one request and expects the same number of
// translations back, in order.
func (l *LLM) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := llmRequest{TargetLang: language.DisplayName(targetLang), Texts: texts}
	if l.sourceLang != "" {
		req.SourceLang = language.DisplayName(l.sourceLang)
	}
	prompt, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("llm translate: encode prompt: %w", err)
	}
	content, err := l.client.CompleteJSON(ctx, translationSystemPrompt, string(prompt))
	if err != nil {
		return nil, err
	}
	var parsed llmResponse
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("llm translate: parse payload: %w", err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, &enrich.MismatchError{Want: len(texts), Got: len(parsed.Translations)}
	}
	out := make([]string, len(parsed.Translations))
	for i, text := range parsed.Translations {
		out[i] = strings.TrimSpace(text)
	}
	return out, nil
}
