// Package push wraps Firebase Cloud Messaging for device notifications.
package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/sparebite/sparebite-backend/pkg/config"
)

// Sender delivers a push message to a single device token.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Client is the FCM-backed Sender used in production.
type Client struct {
	messaging *messaging.Client
}

// NewClient initializes the Firebase app and its messaging client.
func NewClient(ctx context.Context, cfg config.PushConfig) (*Client, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("fcm credentials file is required")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}

	return &Client{messaging: client}, nil
}

// Send pushes a notification to one device token.
func (c *Client) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if c == nil || c.messaging == nil {
		return fmt.Errorf("push client not initialized")
	}
	if token == "" {
		return fmt.Errorf("device token is required")
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := c.messaging.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending push: %w", err)
	}
	return nil
}

// IsUnregistered reports whether the send error means the token is stale and
// should be cleared from the owning account.
func IsUnregistered(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}
