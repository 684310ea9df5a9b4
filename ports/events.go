package ports

import (
	"context"

	"github.com/layer-3/dapptober/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, address string, sessionID string) error
	PublishLogout(ctx context.Context, address string, tokenID string) error
	PublishActivity(ctx context.Context, activity core.Activity) error
}
