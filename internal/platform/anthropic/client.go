package anthropic

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
)

// Client is the language-model provider. Prompts sometimes request strict
// JSON output; callers are responsible for parsing and for degrading
// gracefully when the response is malformed.
type Client interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type client struct {
	log       *logger.Logger
	anthropic anthropic.Client
	model     string
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}

	model := strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL"))
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	return &client{
		log:       log.With("service", "AnthropicClient"),
		anthropic: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
	}, nil
}

func (c *client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 500
	}

	message, err := c.anthropic.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}
