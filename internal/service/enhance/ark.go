package enhance

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/artifex/backend/internal/config"
	"github.com/zhouzirui/artifex/backend/internal/service/generation"
)

// ArkEnhancer runs prompts through an eino chain backed by an Ark chat model.
type ArkEnhancer struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	logger zerolog.Logger
}

// NewArkEnhancer builds the chat model from cfg and compiles the chain.
func NewArkEnhancer(ctx context.Context, cfg config.AIConfig, logger zerolog.Logger) (*ArkEnhancer, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewChainEnhancer(ctx, chatModel, logger)
}

// NewChainEnhancer compiles the enhancer chain around an existing chat model.
func NewChainEnhancer(ctx context.Context, chatModel model.ChatModel, logger zerolog.Logger) (*ArkEnhancer, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile enhance chain: %w", err)
	}

	return &ArkEnhancer{
		chain:  runnable,
		logger: logger.With().Str("component", "enhance").Str("provider", "ark").Logger(),
	}, nil
}

// Enhance implements Enhancer.
func (e *ArkEnhancer) Enhance(ctx context.Context, _ string, raw string) (string, error) {
	msg, err := e.chain.Invoke(ctx, map[string]any{
		"system": systemPrompt,
		"query":  userMessage(raw),
	})
	if err != nil {
		return "", &generation.ServiceError{Op: opEnhance, Err: err}
	}

	out, err := cleanOutput(msg.Content)
	if err != nil {
		return "", err
	}
	e.logger.Debug().Int("in_len", len(raw)).Int("out_len", len(out)).Msg("prompt enhanced")
	return out, nil
}
