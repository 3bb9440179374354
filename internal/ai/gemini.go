package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini implements Completer and ImageAnalyzer on the Gen AI SDK.
type Gemini struct {
	client      *genai.Client
	model       string
	visionModel string
	maxTokens   int
}

// GeminiConfig configures a Gemini client. When APIKey is empty the SDK
// reads GOOGLE_API_KEY or the Vertex AI environment.
type GeminiConfig struct {
	APIKey      string
	Model       string
	VisionModel string
	MaxTokens   int
}

// NewGemini creates a Gen AI client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}
	if cfg.APIKey != "" {
		clientCfg.APIKey = cfg.APIKey
		clientCfg.Backend = genai.BackendGeminiAPI
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	return &Gemini{
		client:      client,
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (g *Gemini) config(system string, maxTokens int) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	return cfg
}

// Complete sends a text prompt.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}
	return g.generate(ctx, g.model, contents, g.config(req.System, req.MaxTokens))
}

// AnalyzeImage sends a prompt with inline image bytes.
func (g *Gemini) AnalyzeImage(ctx context.Context, req ImageRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", &RequestError{Provider: "gemini", Err: errors.New("empty image")}
	}
	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: req.Prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mime,
						Data:     req.Data,
					},
				},
			},
		},
	}
	return g.generate(ctx, g.visionModel, contents, g.config("", 0))
}

func (g *Gemini) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", &RequestError{Provider: "gemini", Retryable: retryableGenAI(err), Err: err}
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &RequestError{Provider: "gemini", Err: errors.New("empty response from model")}
	}
	return text, nil
}

func retryableGenAI(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
