package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
	"github.com/agentic-hr-assistant/server/internal/agent/repo"
	"github.com/agentic-hr-assistant/server/internal/core"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
	pkgredis "github.com/agentic-hr-assistant/server/pkg/redis"
)

const (
	storeMemory = "memory"
	storeRedis  = "redis"
)

// AppConfig defines all configurable parameters of the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Agent        model.AgentConfig
	Answer       model.AnswerModelConfig
	Retriever    model.RetrieverConfig
	Index        model.IndexConfig
	Conversation model.ConversationConfig
	Server       model.ServerConfig
}

func loadConfig(envFile string) (*AppConfig, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}

// newConversationRepository returns the store selected by CONVERSATION_STORE
// and a cleanup func.
func newConversationRepository(ctx context.Context, cfg *AppConfig) (model.ConversationRepository, func(), error) {
	ttl := cfg.Conversation.TTL
	if ttl < 0 {
		return nil, nil, fmt.Errorf("invalid CONVERSATION_TTL %s: must not be negative", ttl)
	}

	switch cfg.Conversation.Store {
	case storeMemory, "":
		return repo.NewMemoryConversationRepository(ttl), func() {}, nil
	case storeRedis:
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		logx.Info().Msg("Connected to Redis successfully")
		return repo.NewRedisConversationRepository(rdb, ttl), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CONVERSATION_STORE %q (want %s or %s)", cfg.Conversation.Store, storeMemory, storeRedis)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	cfg := &AppConfig{}

	root := &cobra.Command{
		Use:           "hrbot",
		Short:         "HR policy assistant for leave questions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			*cfg = *loaded
			logx.Init(logx.LoggerOpts{Environment: cfg.Environment})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newChatCmd(cfg),
		newServeCmd(cfg),
		newIndexCmd(cfg),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
