package whatsapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swasthyasathi/pkg"
)

const delivery = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "messages": [
          {"id": "m1", "from": "919000000001", "timestamp": "1700000000", "type": "text", "text": {"body": "reset profile"}},
          {"id": "m2", "from": "919000000001", "timestamp": "1700000001", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "start_setup", "title": "Start setup"}}},
          {"id": "m3", "from": "919000000001", "type": "interactive",
           "interactive": {"type": "list_reply", "list_reply": {"id": "lang_hin_Deva", "title": "हिन्दी"}}},
          {"id": "m4", "from": "919000000001", "type": "location", "location": {"latitude": 20.46, "longitude": 85.88}},
          {"id": "m5", "from": "919000000001", "type": "image", "image": {"id": "media-1", "mime_type": "image/jpeg"}},
          {"id": "m6", "from": "919000000001", "type": "button", "button": {"payload": "consent_yes", "text": "I agree"}},
          {"id": "m7", "from": "919000000001", "type": "sticker", "sticker": {"id": "s"}}
        ]
      }
    }]
  }]
}`

func TestParseWebhook(t *testing.T) {
	msgs, err := ParseWebhook([]byte(delivery))
	require.NoError(t, err)
	require.Len(t, msgs, 7)

	assert.Equal(t, pkg.InboundMessage{
		ID: "m1", From: "919000000001", Kind: pkg.KindText, Text: "reset profile",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}, msgs[0])

	assert.Equal(t, pkg.KindButton, msgs[1].Kind)
	assert.Equal(t, "start_setup", msgs[1].ReplyID)

	assert.Equal(t, pkg.KindList, msgs[2].Kind)
	assert.Equal(t, "lang_hin_Deva", msgs[2].ReplyID)
	assert.True(t, msgs[2].Timestamp.IsZero())

	assert.Equal(t, pkg.KindLocation, msgs[3].Kind)
	assert.Equal(t, &pkg.GeoPoint{Latitude: 20.46, Longitude: 85.88}, msgs[3].Location)

	assert.Equal(t, pkg.KindImage, msgs[4].Kind)
	assert.Equal(t, "media-1", msgs[4].MediaID)

	assert.Equal(t, pkg.KindButton, msgs[5].Kind)
	assert.Equal(t, "consent_yes", msgs[5].ReplyID)

	assert.Equal(t, pkg.KindUnsupported, msgs[6].Kind)
	assert.Equal(t, "919000000001", msgs[6].From)
}

func TestParseWebhook_StatusCallback(t *testing.T) {
	msgs, err := ParseWebhook([]byte(`{"entry":[{"changes":[{"value":{"statuses":[{"id":"x","status":"read"}]}}]}]}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = ParseWebhook([]byte(`{"entry":`))
	assert.Error(t, err)
}

func TestSignature(t *testing.T) {
	body := []byte(delivery)
	header := Sign("app-secret", body)

	assert.NoError(t, VerifySignature("app-secret", body, header))
	assert.ErrorIs(t, VerifySignature("other-secret", body, header), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("app-secret", append(body, ' '), header), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("app-secret", body, ""), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("app-secret", body, "sha256=zz"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("app-secret", body, "sha1=abc"), ErrInvalidSignature)
}
