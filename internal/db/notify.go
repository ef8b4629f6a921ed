package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// CompletionNotifier publishes a Postgres NOTIFY with the phone number of each
// user who finishes onboarding.  Alert jobs LISTEN on the channel to pick up
// new pincodes without polling the users table.
type CompletionNotifier struct {
	DB      *sql.DB
	Channel string
}

// NewCompletionNotifier constructs a notifier for channel.
func NewCompletionNotifier(db *sql.DB, channel string) *CompletionNotifier {
	return &CompletionNotifier{DB: db, Channel: channel}
}

// Notify sends the phone number as the notification payload.
func (n *CompletionNotifier) Notify(ctx context.Context, phone string) error {
	if n.Channel == "" {
		return nil
	}
	channel := pq.QuoteIdentifier(n.Channel)
	if _, err := n.DB.ExecContext(ctx, fmt.Sprintf("NOTIFY %s, %s", channel, pq.QuoteLiteral(phone))); err != nil {
		return fmt.Errorf("notify %s: %w", n.Channel, err)
	}
	return nil
}
