package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every tunable of the relay process.
type Config struct {
	Server ServerConfig
	Chat   ChatConfig
	WS     WSConfig
	AI     AIConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	ws, err := loadWSConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Chat: chat, WS: ws, AI: loadAIConfig()}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ChatConfig covers moderation and abuse controls.
type ChatConfig struct {
	// AdminKey guards the moderation endpoints. With an empty key every
	// moderation request is refused.
	AdminKey string

	// AnonPrefix is prepended to names chosen by unauthenticated renames.
	AnonPrefix string

	// MsgPerMinute and ResetInterval define the message budget. The
	// effective ceiling per reset window is MsgPerMinute multiplied by
	// the window length in minutes: a per-window budget, not a rolling
	// per-minute cap.
	MsgPerMinute  int
	ResetInterval time.Duration
}

// MessageBudget is the number of chat messages one address may send within
// a single reset window.
func (c ChatConfig) MessageBudget() int {
	return c.MsgPerMinute * int(c.ResetInterval/time.Minute)
}

func loadChatConfig() (ChatConfig, error) {
	perMinute := 20
	if v, err := parseOptionalIntEnv("CHAT_RATE_MSG_PER_MINUTE"); err != nil {
		return ChatConfig{}, err
	} else if v != nil {
		if *v < 1 {
			return ChatConfig{}, fmt.Errorf("CHAT_RATE_MSG_PER_MINUTE must be positive, got %d", *v)
		}
		perMinute = *v
	}

	resetMinutes := 60
	if v, err := parseOptionalIntEnv("CHAT_RATE_RESET_MINUTES"); err != nil {
		return ChatConfig{}, err
	} else if v != nil {
		if *v < 1 {
			return ChatConfig{}, fmt.Errorf("CHAT_RATE_RESET_MINUTES must be positive, got %d", *v)
		}
		resetMinutes = *v
	}

	return ChatConfig{
		AdminKey:      strings.TrimSpace(os.Getenv("CHAT_ADMIN_KEY")),
		AnonPrefix:    getEnvOrDefault("ANON_PREFIX", "anon-"),
		MsgPerMinute:  perMinute,
		ResetInterval: time.Duration(resetMinutes) * time.Minute,
	}, nil
}

// WSConfig tunes the websocket transport guard.
type WSConfig struct {
	// FramesPerSecond and FrameBurst bound raw inbound frames per
	// connection, independent of the chat message budget.
	FramesPerSecond float64
	FrameBurst      int
}

func loadWSConfig() (WSConfig, error) {
	fps := 100.0
	if v, err := parseOptionalFloatEnv("WS_FRAMES_PER_SECOND"); err != nil {
		return WSConfig{}, err
	} else if v != nil {
		fps = *v
	}

	burst := 200
	if v, err := parseOptionalIntEnv("WS_FRAME_BURST"); err != nil {
		return WSConfig{}, err
	} else if v != nil {
		burst = *v
	}

	return WSConfig{FramesPerSecond: fps, FrameBurst: burst}, nil
}

// AIConfig describes the optional LLM-backed reply bot.
type AIConfig struct {
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	BotName      string
	SystemPrompt string
}

// Enabled reports whether the required credentials were provided.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY + ARK_MODEL or AK/SK pair")
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	})
}

func loadAIConfig() AIConfig {
	return AIConfig{
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		BotName:      getEnvOrDefault("CHAT_AI_BOT_NAME", "~AskBot~"),
		SystemPrompt: getEnvOrDefault("CHAT_AI_SYSTEM_PROMPT", "You are a short, polite chat-room assistant. Answer in at most three sentences."),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
