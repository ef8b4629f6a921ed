package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swasthyasathi/internal/config"
	"swasthyasathi/internal/core"
	"swasthyasathi/internal/db"
	"swasthyasathi/internal/dedupe"
	"swasthyasathi/internal/geo"
	httpserver "swasthyasathi/internal/http"
	"swasthyasathi/internal/llm"
	"swasthyasathi/internal/translate"
	"swasthyasathi/internal/whatsapp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply migrations and serve the WhatsApp webhook",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, dbConn, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	defer log.Sync()

	catalog := core.DefaultCatalog()
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("message catalog: %w", err)
	}

	wa, err := whatsapp.NewClient(cfg.WhatsApp.GraphURL, cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.Timeout)
	if err != nil {
		return err
	}
	analyzer, openaiClient, err := buildAnalyzer(ctx, cfg.Analyzer)
	if err != nil {
		return err
	}
	translator, err := buildTranslator(cfg, openaiClient, log)
	if err != nil {
		return err
	}

	repo := db.NewRepository(dbConn)
	onboarding := core.NewOnboarding(
		repo,
		wa,
		geo.NewNominatim(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout),
		db.NewCompletionNotifier(dbConn, cfg.Notify.Channel),
		catalog,
		log.Named("onboarding"),
	)
	chat := core.NewChatPipeline(wa, translator, analyzer, repo, catalog, log.Named("chat"), cfg.Chat.CallTimeout)

	deps := core.DispatcherDeps{
		Store:      repo,
		Notifier:   wa,
		Media:      wa,
		Onboarding: onboarding,
		Chat:       chat,
		Catalog:    catalog,
		Logger:     log.Named("dispatcher"),
	}
	if rdb := openRedis(ctx, cfg.Redis, log); rdb != nil {
		defer rdb.Close()
		deps.Dedupe = dedupe.NewRedisDeduper(rdb, cfg.Redis.DedupTTL)
	}
	dispatcher := core.NewDispatcher(deps)

	api := httpserver.NewServer(httpserver.Options{
		Messages:    dispatcher,
		Users:       repo,
		VerifyToken: cfg.WhatsApp.VerifyToken,
		AppSecret:   cfg.WhatsApp.AppSecret,
		AdminToken:  cfg.Admin.Token,
		Logger:      log.Named("http"),
	})
	if cfg.WhatsApp.AppSecret == "" {
		log.Warn("APP_SECRET not set, webhook signatures are not verified")
	}
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("analyzer", cfg.Analyzer.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Warn("in-flight messages abandoned", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

func buildAnalyzer(ctx context.Context, cfg config.AnalyzerConfig) (core.Analyzer, *llm.OpenAIClient, error) {
	var openaiClient *llm.OpenAIClient
	if cfg.OpenAIKey != "" {
		openaiClient = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:    cfg.OpenAIKey,
			BaseURL:   cfg.OpenAIURL,
			ChatModel: cfg.OpenAIModel,
		})
	}
	switch cfg.Provider {
	case "gemini":
		g, err := llm.NewGeminiAnalyzer(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiURL)
		if err != nil {
			return nil, nil, err
		}
		return g, openaiClient, nil
	default:
		if openaiClient == nil {
			return nil, nil, errors.New("OPENAI_API_KEY is required for the openai analyzer")
		}
		return openaiClient, openaiClient, nil
	}
}

// buildTranslator prefers Google and falls back to the chat model for
// languages Google has no code for.
func buildTranslator(cfg config.Config, openaiClient *llm.OpenAIClient, log *zap.Logger) (*translate.Service, error) {
	var chain translate.Chain
	switch cfg.Translator.Provider {
	case "google":
		if cfg.Translator.GoogleKey == "" {
			return nil, errors.New("GOOGLE_TRANSLATE_API_KEY is required for the google translator")
		}
		chain = append(chain, translate.NewGoogleBackend(cfg.Translator.GoogleKey, cfg.Translator.GoogleURL, cfg.Translator.Timeout))
		if openaiClient != nil {
			chain = append(chain, translate.NewLLMBackend(openaiClient))
		}
	case "openai":
		if openaiClient == nil {
			return nil, errors.New("OPENAI_API_KEY is required for the openai translator")
		}
		chain = append(chain, translate.NewLLMBackend(openaiClient))
	}
	return translate.NewService(chain, log.Named("translate")), nil
}

// openRedis returns nil when de-duplication is disabled or Redis is down.
func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, message de-duplication disabled", zap.Error(err))
		rdb.Close()
		return nil
	}
	return rdb
}
