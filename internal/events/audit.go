// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/metrics"
)

// AuditSubscriber writes every tag change to the audit log.
type AuditSubscriber struct {
	// Observe, when set, receives each decoded event. Tests use it.
	Observe func(TagsChanged)
}

// Register adds the audit consumer to r.
func (a *AuditSubscriber) Register(r *Router, sub message.Subscriber) {
	r.AddConsumer("audit_tags_changed", TopicTagsChanged, sub, a.Handle)
}

// Handle decodes and logs one TagsChanged message. Undecodable payloads are
// logged and acknowledged.
func (a *AuditSubscriber) Handle(msg *message.Message) error {
	metrics.RecordEventConsumed(TopicTagsChanged)
	log := logging.WithComponent("events")

	var evt TagsChanged
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed tag change event")
		return nil
	}
	if evt.UserID <= 0 {
		log.Error().Str("event_id", evt.EventID).Msg("Dropping tag change event without user")
		return nil
	}

	log.Info().
		Str("event_id", evt.EventID).
		Str("correlation_id", middleware.MessageCorrelationID(msg)).
		Int64("user_id", evt.UserID).
		Strs("tags", evt.Tags).
		Int64("daily_count", evt.DailyCount).
		Time("occurred_at", evt.OccurredAt).
		Msg("Profile tags changed")

	if a.Observe != nil {
		a.Observe(evt)
	}
	return nil
}
