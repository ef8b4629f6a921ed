package core

import (
	"context"
	"errors"

	"swasthyasathi/pkg"
)

// ErrProfileNotFound is returned by a ProfileStore when no row exists for a
// sender.
var ErrProfileNotFound = errors.New("profile not found")

// ErrMissingLanguage means a profile reached the chat pipeline without a
// recorded native language.
var ErrMissingLanguage = errors.New("profile has no native language")

// ProfileStore persists one row per sender.
type ProfileStore interface {
	Get(ctx context.Context, phone string) (*pkg.UserProfile, error)
	Create(ctx context.Context, phone string) (*pkg.UserProfile, error)
	// Update merges the non-nil fields and refreshes last_active.
	Update(ctx context.Context, phone string, u pkg.ProfileUpdate) error
	Delete(ctx context.Context, phone string) (bool, error)
	// ClaimPendingMedia clears pending_media_id only if it still equals
	// mediaID.  It reports whether this caller won the claim.
	ClaimPendingMedia(ctx context.Context, phone, mediaID string) (bool, error)
}

// LogStore is the append-only chat audit trail.
type LogStore interface {
	AppendChatLog(ctx context.Context, userID, messageIn, messageOut string) error
}

// Button is one reply button.
type Button struct {
	ID    string
	Title string
}

// ListRow is one selectable row of a list prompt.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// ListPrompt is a single-section list message.
type ListPrompt struct {
	Header     string
	Body       string
	ButtonText string
	Section    string
	Rows       []ListRow
}

// Notifier sends structured messages to a user.
type Notifier interface {
	SendText(ctx context.Context, to, text string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to string, list ListPrompt) error
	SendLocationRequest(ctx context.Context, to, body string) error
}

// Translator translates text between stored language codes.  The returned
// text is always usable: on failure it is the input, alongside the error.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Analyzer produces a health analysis for an English query.  On failure it
// returns a fallback text together with the error.
type Analyzer interface {
	Analyze(ctx context.Context, query, profileContext string, image *pkg.Image) (string, error)
}

// MediaResolver downloads an uploaded image by its channel media id.
type MediaResolver interface {
	FetchMedia(ctx context.Context, mediaID string) (*pkg.Image, error)
}

// Geocoder turns coordinates into an administrative location.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (pkg.Location, error)
}

// CompletionPublisher announces a profile that finished onboarding.
type CompletionPublisher interface {
	Notify(ctx context.Context, phone string) error
}
