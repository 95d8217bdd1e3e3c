package main

import (
	"context"
	"io"
	"time"
)

// Dependencies holds runtime context for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Serve ServeCmd `cmd:"" help:"Run the extraction HTTP server"`
}

// ServeCmd is the "serve" subcommand. Every flag can also be supplied via
// environment variable (a .env file is honored), which is how deployments
// are expected to configure it.
type ServeCmd struct {
	Addr          string `default:":8080" env:"STRUCTURA_ADDR" help:"HTTP listen address"`
	BlueprintsDir string `default:"blueprints" env:"STRUCTURA_BLUEPRINTS_DIR" help:"Directory of open blueprint JSON files"`
	Debug         bool   `env:"STRUCTURA_DEBUG" help:"Debug logging and verbose error responses"`

	GeminiAPIKey    string `env:"GEMINI_API_KEY" help:"Google Gemini API key (required)"`
	FirecrawlAPIKey string `env:"FIRECRAWL_API_KEY" help:"Firecrawl API key; when unset the self-hosted extractor is used"`

	RedisAddr     string `default:"localhost:6379" env:"REDIS_ADDR" help:"Redis address for protected blueprints and API keys"`
	RedisPassword string `env:"REDIS_PASSWORD" help:"Redis password"`
	RedisDB       int    `env:"REDIS_DB" help:"Redis database number"`

	MaxConcurrent   int64         `default:"8" env:"STRUCTURA_MAX_CONCURRENT" help:"In-flight extraction cap"`
	MaxContentBytes int           `default:"20000" env:"STRUCTURA_MAX_CONTENT_BYTES" help:"Page content budget embedded in prompts"`
	BlueprintTTL    time.Duration `default:"5m" env:"STRUCTURA_BLUEPRINT_TTL" help:"Fresh TTL for cached protected blueprints"`
	BlueprintStale  time.Duration `default:"1h" env:"STRUCTURA_BLUEPRINT_STALE_TTL" help:"Stale TTL used when the store is down"`
	KeyTTL          time.Duration `default:"60s" env:"STRUCTURA_KEY_TTL" help:"API key cache TTL"`
	RepairAttempts  int           `default:"2" env:"STRUCTURA_REPAIR_ATTEMPTS" help:"Schema-repair rounds after a failed validation"`
}
