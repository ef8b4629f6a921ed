package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"swasthyasathi/pkg"
)

// GeminiAnalyzer answers health questions with the Gemini API.
type GeminiAnalyzer struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer.  baseURL is only set
// when talking to a proxy.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model, baseURL string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiAnalyzer{client: client, model: model, temperature: 0.2}, nil
}

// Analyze mirrors OpenAIClient.Analyze: FallbackAnalysis comes back with any
// error.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, query, profileContext string, image *pkg.Image) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(analysisPrompt(query, profileContext))}
	if image != nil && len(image.Data) > 0 {
		mime := image.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(image.Data, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	temp := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(AnalysisInstruction, genai.RoleUser),
		Temperature:       &temp,
	})
	if err != nil {
		return FallbackAnalysis, fmt.Errorf("gemini analyze: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return FallbackAnalysis, errors.New("gemini analyze: empty response")
	}
	return ensureDisclaimer(text), nil
}
