// Package translate converts user text between the conversation language and
// the working language.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"swasthyasathi/internal/core"
)

var (
	// ErrUnsupportedLanguage is returned for codes the backend cannot handle.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	errEmptyTranslation    = errors.New("backend returned empty translation")
)

// Backend performs the actual translation.  from.Code may be empty, meaning
// the source language should be detected.
type Backend interface {
	Translate(ctx context.Context, text string, from, to core.Language) (string, error)
}

// Chain tries each backend in order until one produces text.
type Chain []Backend

func (c Chain) Translate(ctx context.Context, text string, from, to core.Language) (string, error) {
	var errs []error
	for _, b := range c {
		out, err := b.Translate(ctx, text, from, to)
		if err == nil && strings.TrimSpace(out) != "" {
			return out, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return "", errors.Join(errs...)
}

// Service implements core.Translator.  On failure it returns the original
// text together with the error so callers can keep going.
type Service struct {
	backend Backend
	logger  *zap.Logger
}

func NewService(backend Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, logger: logger}
}

func (s *Service) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to || strings.TrimSpace(text) == "" {
		return text, nil
	}
	dst, ok := core.LookupLanguage(to)
	if !ok {
		return text, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, to)
	}
	src, ok := core.LookupLanguage(from)
	if !ok {
		s.logger.Debug("unknown source language, detecting", zap.String("from", from))
		src = core.Language{}
	}

	out, err := s.backend.Translate(ctx, text, src, dst)
	if err != nil {
		return text, fmt.Errorf("translate %s->%s: %w", from, to, err)
	}
	if strings.TrimSpace(out) == "" {
		return text, errEmptyTranslation
	}
	return out, nil
}
