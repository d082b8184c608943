// Package mq moves outbound work, such as queued mail, between the API
// server and background workers over a pluggable broker.
package mq

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"
)

// AttrPublishedAt is stamped on every message by MQ.Publish.
const AttrPublishedAt = "published_at"

// ErrChannelRequired is returned when publishing or subscribing without a channel name.
var ErrChannelRequired = errors.New("mq channel is required")

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
	// Redelivered is set when the broker has handed this message out before.
	Redelivered bool
}

// Handler processes a message. A non-nil error asks the broker to redeliver it.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
// Publish must not return until the broker has accepted the message.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
	now     func() time.Time
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend, now: time.Now}
}

// Publish sends data to the named channel and returns the broker's message id.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", ErrChannelRequired
	}
	stamped := make(map[string]string, len(attrs)+1)
	maps.Copy(stamped, attrs)
	stamped[AttrPublishedAt] = m.now().UTC().Format(time.RFC3339)
	return m.backend.Publish(ctx, channel, data, stamped)
}

// Subscribe consumes messages from the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return ErrChannelRequired
	}
	return m.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
