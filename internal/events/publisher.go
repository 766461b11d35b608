// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/metrics"
	"github.com/tomtom215/usercenter/internal/tags"
)

// Publisher emits profile events.
type Publisher struct {
	pub message.Publisher
	now func() time.Time
}

// NewPublisher wraps a Watermill publisher.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub, now: time.Now}
}

// Publish sends a TagsChanged event.
func (p *Publisher) Publish(ctx context.Context, evt TagsChanged) error {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = p.now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", TopicTagsChanged, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_id", evt.EventID)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}

	err = p.pub.Publish(TopicTagsChanged, msg)
	metrics.RecordEventPublished(TopicTagsChanged, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", TopicTagsChanged, err)
	}
	return nil
}

// TagsChanged publishes a TagsChanged event for a committed tag mutation.
func (p *Publisher) TagsChanged(ctx context.Context, userID int64, rawTags string, count int64) error {
	return p.Publish(ctx, TagsChanged{
		UserID:     userID,
		Tags:       tags.Decode(rawTags),
		DailyCount: count,
	})
}
