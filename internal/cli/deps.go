package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/notify"
	"portfolio/internal/research"
	"portfolio/pkg/database"
	"portfolio/pkg/email"
	"portfolio/pkg/llm"
	"portfolio/pkg/logging"
	"portfolio/pkg/monitoring"
	"portfolio/pkg/ratelimit"
	"portfolio/pkg/redis"
	"portfolio/pkg/search"
)

const (
	httpTimeout     = 30 * time.Second
	cleanupInterval = time.Minute
)

// storeHandle is an open content store plus its health probe.
type storeHandle struct {
	store  content.Store
	health monitoring.HealthCheck
	close  func()
}

func openStore(ctx context.Context, cfg config.Config, logger logging.Logger) (*storeHandle, error) {
	switch cfg.StoreType {
	case config.StorePostgres:
		db, err := database.Connect(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return &storeHandle{
			store:  content.NewPostgresStore(db),
			health: monitoring.DatabaseHealthCheck(db),
			close:  func() { _ = db.Close() },
		}, nil

	case config.StoreMongo:
		db, err := content.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		store := content.NewMongoStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, err
		}
		logger.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
		return &storeHandle{
			store: store,
			health: monitoring.PingHealthCheck("MongoDB", func(ctx context.Context) error {
				return db.Client().Ping(ctx, nil)
			}),
			close: func() { _ = db.Client().Disconnect(context.Background()) },
		}, nil

	case config.StoreMemory:
		logger.Warn("Using in-memory content store - drafts are lost on exit")
		return &storeHandle{
			store:  content.NewMemoryStore(),
			health: monitoring.StaticHealthCheck("in-memory store"),
			close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported STORE_TYPE %q", cfg.StoreType)
	}
}

// buildNotifier picks Telegram, then email, then log-only. The Telegram
// notifier is also returned on its own for the webhook.
func buildNotifier(cfg config.Config, logger logging.Logger) (notify.Notifier, *notify.Telegram, error) {
	if cfg.TelegramEnabled() {
		bot, err := notify.NewBotAPI(cfg.TelegramToken, &http.Client{Timeout: httpTimeout})
		if err != nil {
			return nil, nil, err
		}
		tg := notify.NewTelegram(notify.TelegramConfig{Bot: bot, ChatID: cfg.TelegramChatID, Logger: logger})
		return tg, tg, nil
	}
	if cfg.EmailEnabled() {
		logger.WithField("to", cfg.NotifyEmail).Info("Approval requests go out by email")
		return notify.NewEmail(notify.EmailConfig{
			Sender: email.NewSender(cfg.Email),
			To:     cfg.NotifyEmail,
			Logger: logger,
		}), nil, nil
	}
	logger.Warn("No notification channel configured - approval requests are only logged")
	return notify.NewLogNotifier(logger), nil, nil
}

// buildPageFetcher returns the page fetcher and a cleanup for the optional
// headless browser.
func buildPageFetcher(cfg config.Config, logger logging.Logger) (*research.PageFetcher, func()) {
	fetcherCfg := research.PageFetcherConfig{
		HTTPClient: &http.Client{Timeout: httpTimeout},
		UserAgent:  cfg.UserAgent,
		Logger:     logger,
	}
	cleanup := func() {}
	if cfg.EnableRendering {
		renderer, err := research.NewRodRenderer()
		if err != nil {
			logger.WithError(err).Warn("Headless renderer unavailable - static fetch only")
		} else {
			fetcherCfg.Renderer = renderer
			cleanup = renderer.Close
		}
	}
	return research.NewPageFetcher(fetcherCfg), cleanup
}

func buildAugmenter(cfg config.Config, planner llm.Provider, pages *research.PageFetcher, topic string, logger logging.Logger) *research.Augmenter {
	if !cfg.ResearchEnabled() {
		logger.Debug("Research disabled - SEARCH_PROVIDER not configured")
		return nil
	}
	provider, err := search.NewProvider(cfg.Search)
	if err != nil {
		logger.WithError(err).Warn("Search provider unavailable - research disabled")
		return nil
	}
	return research.NewAugmenter(research.AugmenterConfig{
		LLM:     planner,
		Search:  provider,
		Fetcher: pages,
		Logger:  logger,
		Topic:   topic,
	})
}

// limiterHandle is the webhook rate limiter plus an optional Redis probe.
type limiterHandle struct {
	limiter *ratelimit.Limiter
	health  monitoring.HealthCheck
	close   func()
}

func buildLimiter(ctx context.Context, cfg config.Config, logger logging.Logger) (*limiterHandle, error) {
	if cfg.Redis.Enabled() {
		client, err := redis.NewUniversalClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.WithField("addrs", cfg.Redis.Addrs).Info("Webhook rate limits stored in Redis")
		return &limiterHandle{
			limiter: ratelimit.NewLimiter(ratelimit.NewRedisStore(client), cfg.WebhookRateLimit, cfg.WebhookRateWindow, "autopost:webhook:"),
			health: monitoring.PingHealthCheck("Redis", func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}),
			close: func() { _ = client.Close() },
		}, nil
	}

	store := ratelimit.NewMemoryStore()
	store.StartCleanup(ctx, cleanupInterval)
	return &limiterHandle{
		limiter: ratelimit.NewLimiter(store, cfg.WebhookRateLimit, cfg.WebhookRateWindow, "webhook:"),
		close:   func() {},
	}, nil
}
