package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/ports"
)

const (
	TopicLogin    = "dapptober.auth.login"
	TopicLogout   = "dapptober.auth.logout"
	TopicActivity = "dapptober.activity"
)

// LoginEvent represents a successful wallet sign-in
type LoginEvent struct {
	Address   string    `json:"address"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Address string    `json:"address"`
	TokenID string    `json:"token_id"`
	At      time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address string, sessionID string) error {
	return p.publish(ctx, TopicLogin, LoginEvent{
		Address:   address,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, TopicLogout, LogoutEvent{
		Address: address,
		TokenID: tokenID,
		At:      time.Now().UTC(),
	})
}

// PublishActivity publishes a like, comment or submission event
func (p *WatermillPublisher) PublishActivity(ctx context.Context, activity core.Activity) error {
	return p.publish(ctx, TopicActivity, activity)
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, string, string) error  { return nil }
func (NopPublisher) PublishLogout(context.Context, string, string) error { return nil }
func (NopPublisher) PublishActivity(context.Context, core.Activity) error {
	return nil
}
