package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MaxainNN/gpt/pkg/apiserver"
	"github.com/MaxainNN/gpt/pkg/cache"
	"github.com/MaxainNN/gpt/pkg/config"
	"github.com/MaxainNN/gpt/pkg/llm"
	"github.com/MaxainNN/gpt/pkg/memory"
	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/ratelimit"
	"github.com/MaxainNN/gpt/pkg/screening"
	"github.com/MaxainNN/gpt/pkg/services"
	"github.com/MaxainNN/gpt/pkg/vectordb"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	var configPath string
	var port int

	rootCmd := &cobra.Command{
		Use:     "gateway",
		Short:   "LLM gateway with rate limiting, moderation and RAG",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, port)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logging.Init(cfg.Logging.Level)
	defer logging.Sync()
	logging.Infof("Starting LLM gateway %s with config: %s", version, configPath)

	limiter, err := ratelimit.New(cfg.RateLimit.RequestsPerMinute)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	patterns := screening.DefaultPatterns
	if cfg.Moderation.PatternsPath != "" {
		patterns, err = screening.LoadPatterns(cfg.Moderation.PatternsPath)
		if err != nil {
			return fmt.Errorf("failed to load jailbreak patterns: %w", err)
		}
	}
	screen, err := screening.NewScreen(screening.ScreenOptions{
		Enabled:  cfg.Moderation.JailbreakProtection,
		Patterns: patterns,
	})
	if err != nil {
		return fmt.Errorf("failed to compile jailbreak patterns: %w", err)
	}
	validator := screening.NewValidator(screen, cfg.Moderation.MaxInputLength)

	store, err := vectordb.NewChroma(vectordb.ChromaOptions{
		Endpoint:   cfg.Chroma.Endpoint,
		Tenant:     cfg.Chroma.Tenant,
		Database:   cfg.Chroma.Database,
		Collection: cfg.Chroma.Collection,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to vector store: %w", err)
	}

	generator := llm.NewOpenAIGenerator(llm.OpenAIGeneratorOptions{
		Endpoint: cfg.LLM.Endpoint,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
	})

	queryCache := cache.NewQueryCache(cache.QueryCacheOptions{
		MaxEntries:     cfg.Cache.MaxEntries,
		TTL:            cfg.Cache.TTL(),
		EvictionPolicy: cache.PolicyFromName(cfg.Cache.EvictionPolicy),
	})
	convMemory := memory.New(cfg.Memory.MaxMessages)

	server := apiserver.NewServer(apiserver.ServerOptions{
		Config:    cfg,
		Chat:      services.NewChatService(generator, convMemory, validator),
		Rag:       services.NewRagService(store, generator, validator, queryCache),
		Documents: services.NewDocumentService(store, cfg.Chroma.Collection, cfg.Documents.Root),
		Limiter:   limiter,
		Sweepers: []func(maxIdle time.Duration) int{
			limiter.Sweep,
			convMemory.Sweep,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server terminated: %w", err)
	}
	logging.Infof("Gateway stopped")
	return nil
}
