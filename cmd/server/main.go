package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/skyfare/pricewatch-mcp/internal/mcpserver"
	"github.com/skyfare/pricewatch-mcp/internal/nlparse"
	"github.com/skyfare/pricewatch-mcp/internal/poll"
	"github.com/skyfare/pricewatch-mcp/internal/ratelimit"
	"github.com/skyfare/pricewatch-mcp/internal/store"
	"github.com/skyfare/pricewatch-mcp/internal/upstream"
)

type Config struct {
	Mode             string
	Port             string
	UpstreamBaseURL  string
	UpstreamAPIKey   string
	UpstreamTimeout  time.Duration
	RequireRoundTrip bool
	RedisEnabled     bool
	RedisHost        string
	RedisPort        string
	RedisTTL         time.Duration
	OpenAIAPIKey     string
	OpenAIModel      string
	ParseTimeout     time.Duration
	LogLevel         string
}

func main() {
	cfg := loadConfig()

	// Protocol frames own stdout in stdio mode; logs always go to stderr.
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if cfg.UpstreamBaseURL == "" {
		log.Fatal().Msg("UPSTREAM_BASE_URL is required")
	}

	limiter := ratelimit.NewEndpointLimiterWithDefaults()
	limiter.SetEndpointLimit("submit", 2, 5)
	limiter.SetEndpointLimit("poll", 5, 10)

	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.UpstreamBaseURL,
		APIKey:  cfg.UpstreamAPIKey,
		Timeout: cfg.UpstreamTimeout,
	}, limiter, log)

	orchestrator := poll.NewOrchestrator(client, poll.DefaultConfig(), log)

	var results store.Store
	if cfg.RedisEnabled {
		redisStore, err := store.NewRedisStore(store.RedisConfig{
			Host: cfg.RedisHost,
			Port: cfg.RedisPort,
			TTL:  cfg.RedisTTL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		results = redisStore
		log.Info().Str("host", cfg.RedisHost+":"+cfg.RedisPort).Dur("ttl", cfg.RedisTTL).Msg("redis result store enabled")
	} else {
		results = store.NewMemoryStore(64)
		log.Info().Msg("in-memory result store enabled")
	}
	defer results.Close()

	var parser nlparse.Parser
	if cfg.OpenAIAPIKey != "" {
		parser = nlparse.NewOpenAIParser(nlparse.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.ParseTimeout,
		}, log)
		log.Info().Msg("natural-language trip parsing enabled")
	}

	server := mcpserver.New(mcpserver.Config{
		Name:             "pricewatch",
		Version:          "1.0.0",
		RequireRoundTrip: cfg.RequireRoundTrip,
	}, client, orchestrator, results, parser, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case "http":
		runHTTP(ctx, cfg, server, log)
	default:
		log.Info().Msg("serving MCP over stdio")
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
			log.Fatal().Err(err).Msg("stdio server stopped")
		}
	}
}

func runHTTP(ctx context.Context, cfg Config, server *mcpserver.Server, log zerolog.Logger) {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCP()
	}, nil)

	e.Any("/mcp", echo.WrapHandler(handler))
	e.Any("/mcp/*", echo.WrapHandler(handler))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Msg("serving MCP over HTTP")
	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func loadConfig() Config {
	return Config{
		Mode:             getEnv("MODE", "stdio"),
		Port:             getEnv("PORT", "8080"),
		UpstreamBaseURL:  getEnv("UPSTREAM_BASE_URL", ""),
		UpstreamAPIKey:   getEnv("UPSTREAM_API_KEY", ""),
		UpstreamTimeout:  getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		RequireRoundTrip: getEnvBool("REQUIRE_ROUND_TRIP", false),
		RedisEnabled:     getEnvBool("REDIS_ENABLED", false),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisTTL:         getEnvDuration("REDIS_TTL", 15*time.Minute),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", ""),
		ParseTimeout:     getEnvDuration("PARSE_TIMEOUT", 45*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
