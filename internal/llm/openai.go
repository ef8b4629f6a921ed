package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"swasthyasathi/pkg"
)

// OpenAIConfig holds credentials and model names for OpenAIClient.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	ChatModel string
	// TranslateModel defaults to ChatModel.
	TranslateModel string
}

// OpenAIClient calls the OpenAI chat completion API.  It serves as the
// analyzer and, optionally, as the translation backend.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	translateModel string
}

// NewOpenAIClient constructs an OpenAI-backed client and falls back to
// sensible model defaults.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		// vision capable; can be overridden via config
		chatModel = "gpt-4o-mini"
	}
	translateModel := cfg.TranslateModel
	if translateModel == "" {
		translateModel = chatModel
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      chatModel,
		translateModel: translateModel,
	}
}

// Analyze asks the model for a structured health analysis.  On error it
// returns FallbackAnalysis together with the error.
func (c *OpenAIClient) Analyze(ctx context.Context, query, profileContext string, image *pkg.Image) (string, error) {
	if c.client == nil {
		return FallbackAnalysis, errors.New("openai client not initialized")
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	prompt := analysisPrompt(query, profileContext)
	if image != nil && len(image.Data) > 0 {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(image),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		user.Content = prompt
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: AnalysisInstruction},
			user,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return FallbackAnalysis, fmt.Errorf("openai analyze: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return FallbackAnalysis, errors.New("openai analyze: empty response")
	}
	return ensureDisclaimer(resp.Choices[0].Message.Content), nil
}

// Translate translates text between two language names.  It is used as a
// translation backend when no dedicated translation API is configured.
func (c *OpenAIClient) Translate(ctx context.Context, text, fromName, toName string) (string, error) {
	if fromName == "" {
		fromName = "the detected language"
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.translateModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(TranslationInstruction, fromName, toName)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openai translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai translate: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func dataURL(img *pkg.Image) string {
	mime := img.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ensureDisclaimer appends the disclaimer when the model dropped it.
func ensureDisclaimer(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, Disclaimer) {
		return s
	}
	return s + "\n\n" + Disclaimer
}
