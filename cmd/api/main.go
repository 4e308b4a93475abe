package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/api/handlers"
	redisCache "github.com/seo-hub/backend/internal/cache/redis"
	"github.com/seo-hub/backend/internal/executor"
	"github.com/seo-hub/backend/internal/knowledge"
	"github.com/seo-hub/backend/internal/llm"
	"github.com/seo-hub/backend/internal/metrics"
	"github.com/seo-hub/backend/internal/middleware/ratelimit"
	"github.com/seo-hub/backend/internal/middleware/security"
	"github.com/seo-hub/backend/internal/middleware/validation"
	"github.com/seo-hub/backend/internal/planner"
	"github.com/seo-hub/backend/internal/query"
	"github.com/seo-hub/backend/internal/schema"
	"github.com/seo-hub/backend/internal/store"
	"github.com/seo-hub/backend/pkg/config"
	appLogger "github.com/seo-hub/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting SEO Hub API Server")

	metrics.Init()

	stores, err := store.Open(store.Paths{
		Rankings: cfg.Stores.RankingsPath,
		Content:  cfg.Stores.ContentPath,
		Mentions: cfg.Stores.MentionsPath,
	}, time.Duration(cfg.Stores.QueryTimeout)*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to open stores", zap.Error(err))
	}
	defer stores.Close()

	if err := stores.InitSchemas(); err != nil {
		appLogger.Fatal("Failed to initialize store schemas", zap.Error(err))
	}

	var cache *redisCache.Client
	if cfg.Redis.Enabled {
		cache, err = redisCache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
			cache = nil
		}
	}

	llmOpts := llm.Options{
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
		TopP:           cfg.LLM.TopP,
		MaxTokens:      cfg.LLM.MaxTokens,
		Timeout:        time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	}
	if cache != nil {
		llmOpts.Cache = cache
	}
	llmClient := llm.NewClient(llmOpts)

	ctx := context.Background()

	var index knowledge.Index
	if cfg.Vector.Provider == "milvus" {
		index, err = knowledge.NewMilvusIndex(ctx, cfg.Vector.Endpoint, cfg.Vector.APIKey, cfg.Vector.VectorDim)
		if err != nil {
			appLogger.Fatal("Failed to connect to vector service", zap.Error(err))
		}
	} else {
		index = knowledge.NewMemoryIndex()
	}

	patterns, err := knowledge.NewPatternStore(ctx, index, llmClient, cfg.Vector.CollectionPrefix)
	if err != nil {
		appLogger.Fatal("Failed to initialize pattern store", zap.Error(err))
	}
	defer patterns.Close()

	if err := knowledge.LoadKnowledgeBase(ctx, patterns, cfg.Knowledge.Dir); err != nil {
		appLogger.Warn("Knowledge base load incomplete", zap.Error(err))
	}

	var descriptionCache schema.DescriptionCache
	if cache != nil {
		descriptionCache = cache
	}
	catalog := schema.NewCatalog(stores, descriptionCache)

	queryPlanner := planner.New(llmClient, catalog, patterns, cfg.Knowledge.Exemplars)
	queryExecutor := executor.New(stores, llmClient)
	engine := query.NewEngine(queryPlanner, queryExecutor, patterns)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{}))

	askHandler := handlers.NewAskHandler(engine)
	schemaHandler := handlers.NewSchemaHandler(catalog)
	patternsHandler := handlers.NewPatternsHandler(patterns)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/ask", askHandler.HandleAsk)
	api.Get("/schema", schemaHandler.HandleSchema)
	api.Post("/patterns", patternsHandler.HandleAddPattern)
	api.Post("/trends", patternsHandler.HandleAddTrend)
	api.Post("/insights", patternsHandler.HandleAddInsight)
	api.Get("/knowledge/similar", patternsHandler.HandleQuerySimilar)

	api.Use("/ask/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ask/ws", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())(c.Context())
		return nil
	})

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
