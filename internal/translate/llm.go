package translate

import (
	"context"

	"swasthyasathi/internal/core"
)

// ChatTranslator is satisfied by llm.OpenAIClient.
type ChatTranslator interface {
	Translate(ctx context.Context, text, fromName, toName string) (string, error)
}

// LLMBackend asks a chat model to translate.  It covers languages the
// REST backend has no code for.
type LLMBackend struct {
	model ChatTranslator
}

func NewLLMBackend(model ChatTranslator) *LLMBackend {
	return &LLMBackend{model: model}
}

func (b *LLMBackend) Translate(ctx context.Context, text string, from, to core.Language) (string, error) {
	return b.model.Translate(ctx, text, from.Name, to.Name)
}
