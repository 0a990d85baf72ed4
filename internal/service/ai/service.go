package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/driftlabs/relaychat/internal/config"
	"github.com/driftlabs/relaychat/internal/service/chat"
)

// Service wraps the LLM behind the optional ask bot.
type Service struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the model and compiles the prompt chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{cfg: cfg, chain: runnable}, nil
}

// Generate produces one answer for a single question.
func (s *Service) Generate(ctx context.Context, query string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": s.cfg.SystemPrompt,
		"query":  query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] generated reply, length=%d", len(response.Content))
	return response.Content, nil
}

// Bot adapts the service to the chat bot contract. It answers messages of
// the form "!ask <question>" and replies to the asker only.
func (s *Service) Bot() chat.Bot {
	const trigger = "!ask "

	return func(ctx context.Context, message, _, _ string) (*chat.Reply, error) {
		if !strings.HasPrefix(message, trigger) {
			return nil, nil
		}
		question := strings.TrimSpace(strings.TrimPrefix(message, trigger))
		if question == "" {
			return nil, nil
		}

		answer, err := s.Generate(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("ask bot: %w", err)
		}

		return &chat.Reply{
			BotName:      s.cfg.BotName,
			Message:      answer,
			OnlyToSender: true,
		}, nil
	}
}
