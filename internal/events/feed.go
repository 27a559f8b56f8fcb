// Package events broadcasts scan history changes so connected clients know to
// re-fetch their history.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	scansTopic = "scans"
	bufferSize = 64
)

type EventType string

const (
	Insert EventType = "insert"
	Update EventType = "update"
	Delete EventType = "delete"
)

type ScanEvent struct {
	Type   EventType `json:"type"`
	ScanID string    `json:"scan_id"`
	UserID string    `json:"user_id"`
}

// Feed is an in-process publish/subscribe hub. Events published while nobody
// is subscribed are dropped, as are events for a subscriber whose buffer is
// full. Each subscriber sees events in publish order.
type Feed struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

func NewFeed(logger *slog.Logger) *Feed {
	return &Feed{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            bufferSize,
				BlockPublishUntilSubscriberAck: true,
			},
			watermill.NewSlogLogger(logger),
		),
		logger: logger,
	}
}

func (f *Feed) Publish(ctx context.Context, ev ScanEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode scan event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := f.pubsub.Publish(scansTopic, msg); err != nil {
		return fmt.Errorf("failed to publish scan event: %w", err)
	}
	return nil
}

// Subscribe returns the events for userID until ctx is done, at which point
// the channel is closed.
func (f *Feed) Subscribe(ctx context.Context, userID string) (<-chan ScanEvent, error) {
	messages, err := f.pubsub.Subscribe(ctx, scansTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to scan events: %w", err)
	}

	out := make(chan ScanEvent, bufferSize)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev ScanEvent
			err := json.Unmarshal(msg.Payload, &ev)
			msg.Ack()
			if err != nil {
				f.logger.Error("failed to decode scan event", "message_id", msg.UUID, "error", err)
				continue
			}
			if ev.UserID != userID {
				continue
			}
			select {
			case out <- ev:
			default:
				f.logger.Warn("dropping scan event for slow subscriber", "user_id", userID, "scan_id", ev.ScanID)
			}
		}
	}()
	return out, nil
}

func (f *Feed) Close() error {
	return f.pubsub.Close()
}
