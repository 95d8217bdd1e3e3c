package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/fwojciec/structura"
	"github.com/fwojciec/structura/extract"
	"github.com/fwojciec/structura/firecrawl"
	"github.com/fwojciec/structura/fs"
	"github.com/fwojciec/structura/gemini"
	structhttp "github.com/fwojciec/structura/http"
	"github.com/fwojciec/structura/jsonschema"
	"github.com/fwojciec/structura/markdown"
	structredis "github.com/fwojciec/structura/redis"
	structslog "github.com/fwojciec/structura/slog"
)

// shutdownGrace bounds how long in-flight requests get to finish.
const shutdownGrace = 15 * time.Second

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (c *ServeCmd) Run(deps *Dependencies) error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(deps.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := deps.Ctx

	library, err := fs.LoadLibrary(c.BlueprintsDir, logger)
	if err != nil {
		return fmt.Errorf("load blueprints: %w", err)
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	defer redisClient.Close()
	store := structredis.NewStore(redisClient)
	if err := store.Ping(ctx); err != nil {
		// Protected domains degrade to cache-only; open ones still work.
		logger.Warn("redis unreachable at startup", "addr", c.RedisAddr, "err", err)
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}

	var tokens structura.TokenCounter
	if tc, err := gemini.NewTokenCounter(); err != nil {
		logger.Warn("token counter unavailable", "err", err)
	} else {
		tokens = tc
	}

	var extractor structura.MarkdownExtractor
	if c.FirecrawlAPIKey != "" {
		extractor = firecrawl.NewExtractor(c.FirecrawlAPIKey)
		logger.Info("content extraction backend", "backend", "firecrawl")
	} else {
		extractor = markdown.NewExtractor()
		logger.Info("content extraction backend", "backend", "self-hosted")
	}

	access := extract.NewAccess(store,
		extract.WithKeyTTL(c.KeyTTL),
		extract.WithAccessLogger(logger),
	)
	resolver := extract.NewResolver(library, store, access,
		extract.WithBlueprintTTL(c.BlueprintTTL, c.BlueprintStale),
		extract.WithResolverLogger(logger),
	)
	engine := extract.NewEngine(
		gemini.NewCompleter(genaiClient),
		extract.WithEngineLogger(logger),
	)

	repairs := c.RepairAttempts
	if repairs == 0 {
		repairs = -1 // explicit zero disables repair
	}
	var svc structura.ExtractionService = &extract.Service{
		Blueprints:      resolver,
		Extractor:       extractor,
		Engine:          engine,
		Validator:       jsonschema.NewValidator(),
		Tokens:          tokens,
		Logger:          logger,
		MaxContentBytes: c.MaxContentBytes,
		RepairAttempts:  repairs,
	}
	svc = structslog.NewLoggingExtractionService(svc, logger)

	handler := structhttp.NewHandler(svc, logger,
		structhttp.WithVerbose(c.Debug),
		structhttp.WithMaxConcurrent(c.MaxConcurrent),
		structhttp.WithLibrary(library),
	)
	server := &http.Server{
		Addr:    c.Addr,
		Handler: structhttp.NewRouter(handler, logger),
	}

	logger.Info("server starting",
		"addr", c.Addr,
		"open_domains", len(library.Domains()),
		"debug", c.Debug,
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
