package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/pkg/logger"
)

// GeminiValidationModel is used for the credential check request
const GeminiValidationModel = "gemini-2.5-flash"

// GeminiProvider talks to the Gemini generateContent endpoint
type GeminiProvider struct {
	opts TransportOptions
	log  *logger.Logger
}

// NewGeminiProvider creates the Gemini transport
func NewGeminiProvider(opts TransportOptions, log *logger.Logger) *GeminiProvider {
	return &GeminiProvider{
		opts: opts,
		log:  log.WithComponent("ai.gemini"),
	}
}

func (p *GeminiProvider) Name() models.Provider {
	return models.ProviderGemini
}

func (p *GeminiProvider) client(ctx context.Context, secret string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      secret,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  p.opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: p.opts.BaseURL},
	})
}

// Generate sends the prompt to Gemini and joins the first candidate's parts
func (p *GeminiProvider) Generate(ctx context.Context, secret string, req Request) (*Result, error) {
	client, err := p.client(ctx, secret)
	if err != nil {
		return nil, &ProviderError{Provider: models.ProviderGemini, Message: err.Error()}
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.WebSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	log := p.log.WithProvider(string(models.ProviderGemini), req.Model)
	log.Debug().
		Int("max_tokens", req.MaxTokens).
		Bool("web_search", req.WebSearch).
		Msg("Sending request to Gemini")

	resp, err := client.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)}, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Gemini API error")
		return nil, geminiError(err)
	}

	var b strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
	}

	result := &Result{Text: b.String(), Model: resp.ModelVersion}
	if u := resp.UsageMetadata; u != nil {
		result.Usage = &Usage{
			InputTokens:  int64(u.PromptTokenCount),
			OutputTokens: int64(u.CandidatesTokenCount),
		}
		log.Debug().
			Int64("input_tokens", result.Usage.InputTokens).
			Int64("output_tokens", result.Usage.OutputTokens).
			Msg("Received Gemini response")
	}
	return result, nil
}

// ValidateCredential sends a tiny request; any failure means invalid
func (p *GeminiProvider) ValidateCredential(ctx context.Context, secret string) bool {
	client, err := p.client(ctx, secret)
	if err != nil {
		return false
	}
	_, err = client.Models.GenerateContent(ctx, GeminiValidationModel,
		[]*genai.Content{genai.NewContentFromText(validationPrompt, genai.RoleUser)},
		&genai.GenerateContentConfig{MaxOutputTokens: validationMaxTokens})
	if err != nil {
		p.log.Debug().Err(err).Msg("Credential validation failed")
		return false
	}
	return true
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return &ProviderError{Provider: models.ProviderGemini, Message: err.Error()}
	}
	return newStatusError(models.ProviderGemini, apiErr.Code, apiErr.Message)
}
