package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"swasthyasathi/pkg"
)

// ErrInvalidSignature means X-Hub-Signature-256 did not match the body.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SignatureHeader carries the app-secret HMAC of the request body.
const SignatureHeader = "X-Hub-Signature-256"

// VerifySignature checks a "sha256=<hex>" header against body.
func VerifySignature(appSecret string, body []byte, header string) error {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the header value VerifySignature accepts.
func Sign(appSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []rawMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type rawMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
	// Quick-reply buttons on template messages arrive as type "button".
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Image *struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"image"`
}

// ParseWebhook extracts every message in a webhook delivery.  Status
// callbacks carry no messages and yield an empty slice.
func ParseWebhook(body []byte) ([]pkg.InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	var out []pkg.InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				out = append(out, convert(m))
			}
		}
	}
	return out, nil
}

func convert(m rawMessage) pkg.InboundMessage {
	msg := pkg.InboundMessage{
		ID:        m.ID,
		From:      m.From,
		Kind:      pkg.KindUnsupported,
		Timestamp: parseTimestamp(m.Timestamp),
	}
	switch m.Type {
	case "text":
		if m.Text != nil {
			msg.Kind = pkg.KindText
			msg.Text = m.Text.Body
		}
	case "interactive":
		if m.Interactive == nil {
			break
		}
		switch {
		case m.Interactive.ButtonReply != nil:
			msg.Kind = pkg.KindButton
			msg.ReplyID = m.Interactive.ButtonReply.ID
			msg.Text = m.Interactive.ButtonReply.Title
		case m.Interactive.ListReply != nil:
			msg.Kind = pkg.KindList
			msg.ReplyID = m.Interactive.ListReply.ID
			msg.Text = m.Interactive.ListReply.Title
		}
	case "button":
		if m.Button != nil {
			msg.Kind = pkg.KindButton
			msg.ReplyID = m.Button.Payload
			msg.Text = m.Button.Text
		}
	case "location":
		if m.Location != nil {
			msg.Kind = pkg.KindLocation
			msg.Location = &pkg.GeoPoint{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
		}
	case "image":
		if m.Image != nil {
			msg.Kind = pkg.KindImage
			msg.MediaID = m.Image.ID
		}
	}
	return msg
}

func parseTimestamp(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
