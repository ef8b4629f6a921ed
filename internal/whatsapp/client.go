// Package whatsapp talks to the WhatsApp Cloud API: outbound messages, media
// download and inbound webhook parsing.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"swasthyasathi/internal/core"
	"swasthyasathi/pkg"
)

// Cloud API field limits.
const (
	maxButtonTitle  = 20
	maxRowTitle     = 24
	maxRowDesc      = 72
	maxListButton   = 20
	maxHeaderText   = 60
	maxBodyText     = 4096
	maxTextBody     = 4096
	maxMediaBytes   = 16 << 20
	defaultGraphURL = "https://graph.facebook.com/v23.0"
)

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("whatsapp %s: status=%d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("whatsapp %s: status=%d: %s", e.Op, e.StatusCode, e.Message)
}

// Client implements core.Notifier and core.MediaResolver.
type Client struct {
	graphURL      string
	token         string
	phoneNumberID string
	httpClient    *http.Client
}

func NewClient(graphURL, token, phoneNumberID string, timeout time.Duration) (*Client, error) {
	token = strings.TrimSpace(token)
	phoneNumberID = strings.TrimSpace(phoneNumberID)
	if token == "" || phoneNumberID == "" {
		return nil, errors.New("whatsapp token and phone number id are required")
	}
	if graphURL == "" {
		graphURL = defaultGraphURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		graphURL:      strings.TrimRight(graphURL, "/"),
		token:         token,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

type textBody struct {
	Body string `json:"body"`
}

type outbound struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *textBody    `json:"text,omitempty"`
	Interactive      *interactive `json:"interactive,omitempty"`
}

type interactive struct {
	Type   string             `json:"type"`
	Header *interactiveHeader `json:"header,omitempty"`
	Body   textBody           `json:"body"`
	Action interactiveAction  `json:"action"`
}

type interactiveHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type interactiveAction struct {
	Name     string        `json:"name,omitempty"`
	Button   string        `json:"button,omitempty"`
	Buttons  []replyButton `json:"buttons,omitempty"`
	Sections []listSection `json:"sections,omitempty"`
}

type replyButton struct {
	Type  string `json:"type"`
	Reply struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"reply"`
}

type listSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []listRow `json:"rows"`
}

type listRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (c *Client) SendText(ctx context.Context, to, text string) error {
	return c.send(ctx, "send text", outbound{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: truncate(text, maxTextBody)},
	})
}

func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []core.Button) error {
	if len(buttons) == 0 || len(buttons) > 3 {
		return fmt.Errorf("whatsapp send buttons: need 1 to 3 buttons, got %d", len(buttons))
	}
	rb := make([]replyButton, len(buttons))
	for i, b := range buttons {
		rb[i].Type = "reply"
		rb[i].Reply.ID = b.ID
		rb[i].Reply.Title = truncate(b.Title, maxButtonTitle)
	}
	return c.send(ctx, "send buttons", outbound{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &interactive{
			Type:   "button",
			Body:   textBody{Body: truncate(body, maxBodyText)},
			Action: interactiveAction{Buttons: rb},
		},
	})
}

func (c *Client) SendList(ctx context.Context, to string, list core.ListPrompt) error {
	if len(list.Rows) == 0 || len(list.Rows) > 10 {
		return fmt.Errorf("whatsapp send list: need 1 to 10 rows, got %d", len(list.Rows))
	}
	rows := make([]listRow, len(list.Rows))
	for i, r := range list.Rows {
		rows[i] = listRow{
			ID:          r.ID,
			Title:       truncate(r.Title, maxRowTitle),
			Description: truncate(r.Description, maxRowDesc),
		}
	}
	msg := &interactive{
		Type: "list",
		Body: textBody{Body: truncate(list.Body, maxBodyText)},
		Action: interactiveAction{
			Button:   truncate(list.ButtonText, maxListButton),
			Sections: []listSection{{Title: truncate(list.Section, maxRowTitle), Rows: rows}},
		},
	}
	if list.Header != "" {
		msg.Header = &interactiveHeader{Type: "text", Text: truncate(list.Header, maxHeaderText)}
	}
	return c.send(ctx, "send list", outbound{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive:      msg,
	})
}

// SendLocationRequest shows the native "Send location" button.
func (c *Client) SendLocationRequest(ctx context.Context, to, body string) error {
	return c.send(ctx, "send location request", outbound{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive: &interactive{
			Type:   "location_request_message",
			Body:   textBody{Body: truncate(body, maxBodyText)},
			Action: interactiveAction{Name: "send_location"},
		},
	})
}

func (c *Client) send(ctx context.Context, op string, msg outbound) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp %s: marshal: %w", op, err)
	}
	u := fmt.Sprintf("%s/%s/messages", c.graphURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req, op)
	return err
}

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// FetchMedia resolves a media id to its download URL and downloads it.
func (c *Client) FetchMedia(ctx context.Context, mediaID string) (*pkg.Image, error) {
	if mediaID == "" {
		return nil, errors.New("whatsapp fetch media: empty media id")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.graphURL+"/"+mediaID, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp fetch media: %w", err)
	}
	raw, err := c.do(req, "media info")
	if err != nil {
		return nil, err
	}
	var info mediaInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("whatsapp media info: decode: %w", err)
	}
	if info.URL == "" {
		return nil, errors.New("whatsapp media info: missing url")
	}
	if info.FileSize > maxMediaBytes {
		return nil, fmt.Errorf("whatsapp media: %d bytes exceeds limit", info.FileSize)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp media download: %w", err)
	}
	data, err := c.do(req, "media download")
	if err != nil {
		return nil, err
	}
	mime := info.MimeType
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return &pkg.Image{MimeType: mime, Data: data}, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("whatsapp %s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: graphErrorMessage(body)}
	}
	return body, nil
}

func graphErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
