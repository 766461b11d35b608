// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package events publishes profile domain events over Watermill and hosts the
// router that consumes them. The default transport is the in-process
// gochannel Pub/Sub.
package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/usercenter/internal/logging"
)

// TopicTagsChanged carries TagsChanged events.
const TopicTagsChanged = "profile.tags_changed"

// TagsChanged is emitted after a guarded tag mutation has been committed and
// the dependent index invalidated.
type TagsChanged struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	Tags       []string  `json:"tags"`
	DailyCount int64     `json:"daily_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewLogger returns a Watermill logger that writes through the application
// logger.
func NewLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger())
}

// NewPubSub creates the in-process Pub/Sub used when no broker is configured.
func NewPubSub(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
}
