package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"swasthyasathi/internal/metrics"
	"swasthyasathi/pkg"
)

// ChatPipeline answers a health question for a user who finished onboarding:
// translate to the working language, analyze, translate back, reply, log.
// Steps run strictly in sequence and a failed run is never retried.
type ChatPipeline struct {
	notifier    Notifier
	translator  Translator
	analyzer    Analyzer
	logs        LogStore
	catalog     *Catalog
	logger      *zap.Logger
	callTimeout time.Duration
}

// NewChatPipeline constructs a pipeline.  callTimeout bounds each translate
// and analyze call; zero disables the bound.
func NewChatPipeline(notifier Notifier, translator Translator, analyzer Analyzer, logs LogStore, catalog *Catalog, logger *zap.Logger, callTimeout time.Duration) *ChatPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &ChatPipeline{
		notifier:    notifier,
		translator:  translator,
		analyzer:    analyzer,
		logs:        logs,
		catalog:     catalog,
		logger:      logger,
		callTimeout: callTimeout,
	}
}

// Run processes one question.  image is optional.  All failures are handled
// here: the user gets one apology and nothing is logged to the chat log.
func (c *ChatPipeline) Run(ctx context.Context, p *pkg.UserProfile, userText string, image *pkg.Image) {
	if p == nil || p.NativeLanguage == "" {
		phone := ""
		if p != nil {
			phone = p.Phone
		}
		c.logger.Error("chat pipeline cannot run", zap.String("phone", phone), zap.Error(ErrMissingLanguage))
		metrics.ChatPipeline(metrics.OutcomeMissingLanguage)
		if phone != "" {
			c.send(ctx, phone, c.catalog.Text(WorkingLanguage, MsgMissingLanguage))
		}
		return
	}
	lang := p.NativeLanguage
	log := c.logger.With(zap.String("phone", p.Phone), zap.String("language", lang))

	// no typing indicator on the channel, so acknowledge before the slow part
	if err := c.notifier.SendText(ctx, p.Phone, c.catalog.Text(lang, MsgAnalyzing)); err != nil {
		log.Warn("failed to send analyzing acknowledgement", zap.Error(err))
	}

	reply, err := c.answer(ctx, p, userText, image)
	if err != nil {
		log.Error("chat pipeline failed", zap.Error(err))
		metrics.ChatPipeline(metrics.OutcomeAnalyzerError)
		c.send(ctx, p.Phone, c.catalog.Text(lang, MsgPipelineError))
		return
	}

	if err := c.notifier.SendText(ctx, p.Phone, reply); err != nil {
		log.Error("failed to send analysis", zap.Error(err))
		metrics.ChatPipeline(metrics.OutcomeSendError)
		c.send(ctx, p.Phone, c.catalog.Text(lang, MsgPipelineError))
		return
	}

	if c.logs != nil {
		if err := c.logs.AppendChatLog(ctx, p.Phone, userText, reply); err != nil {
			log.Warn("failed to append chat log", zap.Error(err))
		}
	}
	metrics.ChatPipeline(metrics.OutcomeOK)
	log.Info("chat question answered", zap.Bool("with_image", image != nil))
}

func (c *ChatPipeline) answer(ctx context.Context, p *pkg.UserProfile, userText string, image *pkg.Image) (string, error) {
	lang := p.NativeLanguage

	english, err := c.translate(ctx, userText, lang, WorkingLanguage)
	if err != nil {
		c.logger.Warn("translation to working language failed, using original text",
			zap.String("phone", p.Phone), zap.Error(err))
	}

	actx, cancel := c.withTimeout(ctx)
	analysis, err := c.analyzer.Analyze(actx, english, ProfileContext(p), image)
	cancel()
	if err != nil {
		return "", fmt.Errorf("analyze: %w", err)
	}

	localized, err := c.translate(ctx, analysis, WorkingLanguage, lang)
	if err != nil {
		c.logger.Warn("translation of analysis failed, sending working language text",
			zap.String("phone", p.Phone), zap.Error(err))
	}
	return localized, nil
}

func (c *ChatPipeline) translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to {
		return text, nil
	}
	tctx, cancel := c.withTimeout(ctx)
	defer cancel()
	out, err := c.translator.Translate(tctx, text, from, to)
	if err != nil && out == "" {
		out = text
	}
	return out, err
}

func (c *ChatPipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *ChatPipeline) send(ctx context.Context, phone, text string) {
	if err := c.notifier.SendText(ctx, phone, text); err != nil {
		c.logger.Warn("failed to send message", zap.String("phone", phone), zap.Error(err))
	}
}
