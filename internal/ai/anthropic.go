package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/pkg/logger"
)

// Parameters of the credential check request
const (
	ValidationModel     = "claude-sonnet-4-5-20250929"
	validationMaxTokens = 10
	validationPrompt    = "Hi"
	webSearchMaxUses    = 5
)

// AnthropicProvider talks to the Messages API
type AnthropicProvider struct {
	opts TransportOptions
	log  *logger.Logger
}

// NewAnthropicProvider creates the Anthropic transport
func NewAnthropicProvider(opts TransportOptions, log *logger.Logger) *AnthropicProvider {
	return &AnthropicProvider{
		opts: opts,
		log:  log.WithComponent("ai.anthropic"),
	}
}

func (p *AnthropicProvider) Name() models.Provider {
	return models.ProviderAnthropic
}

// client builds an SDK client bound to one secret. Retries are disabled so
// every Generate is a single attempt.
func (p *AnthropicProvider) client(secret string) anthropic.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(secret),
		option.WithMaxRetries(0),
	}
	if p.opts.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.opts.BaseURL))
	}
	if p.opts.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(p.opts.HTTPClient))
	}
	return anthropic.NewClient(opts...)
}

// Generate sends the prompt to Claude and joins the returned text blocks
func (p *AnthropicProvider) Generate(ctx context.Context, secret string, req Request) (*Result, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.WebSearch {
		params.Tools = []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(webSearchMaxUses),
			},
		}}
	}

	log := p.log.WithProvider(string(models.ProviderAnthropic), req.Model)
	log.Debug().
		Int("max_tokens", req.MaxTokens).
		Bool("web_search", req.WebSearch).
		Msg("Sending request to Claude")

	client := p.client(secret)
	message, err := client.Messages.New(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("Claude API error")
		return nil, anthropicError(err)
	}

	var texts []string
	for _, block := range message.Content {
		if block.Type == "text" {
			texts = append(texts, block.Text)
		}
	}

	log.Debug().
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("Received Claude response")

	return &Result{
		Text:  strings.Join(texts, "\n"),
		Model: string(message.Model),
		Usage: &Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}, nil
}

// ValidateCredential sends a tiny request; any failure means invalid
func (p *AnthropicProvider) ValidateCredential(ctx context.Context, secret string) bool {
	client := p.client(secret)
	_, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(ValidationModel),
		MaxTokens: validationMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(validationPrompt)),
		},
	})
	if err != nil {
		p.log.Debug().Err(err).Msg("Credential validation failed")
		return false
	}
	return true
}

func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return &ProviderError{Provider: models.ProviderAnthropic, Message: err.Error()}
	}
	message := gjson.Get(apiErr.RawJSON(), "error.message").String()
	return newStatusError(models.ProviderAnthropic, apiErr.StatusCode, message)
}
