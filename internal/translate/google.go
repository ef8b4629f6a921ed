package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"time"

	"swasthyasathi/internal/core"
)

// GoogleBackend calls the Cloud Translation v2 REST API.
type GoogleBackend struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewGoogleBackend(apiKey, endpoint string, timeout time.Duration) *GoogleBackend {
	if endpoint == "" {
		endpoint = "https://translation.googleapis.com/language/translate/v2"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleBackend{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type googleRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source,omitempty"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GoogleBackend) Translate(ctx context.Context, text string, from, to core.Language) (string, error) {
	if to.ISO == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, to.Code)
	}
	body, err := json.Marshal(googleRequest{
		Q:      []string{text},
		Source: from.ISO,
		Target: to.ISO,
		Format: "text",
	})
	if err != nil {
		return "", err
	}

	u := g.endpoint + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("google translate: read body: %w", err)
	}
	var out googleResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("google translate: decode (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return "", fmt.Errorf("google translate: status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("google translate: status %d", resp.StatusCode)
	}
	if len(out.Data.Translations) == 0 {
		return "", errEmptyTranslation
	}
	return html.UnescapeString(out.Data.Translations[0].TranslatedText), nil
}
