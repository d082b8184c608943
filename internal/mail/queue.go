package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/notekeeper/apiserver/internal/logging"
	"github.com/notekeeper/apiserver/internal/mq"
)

const attrKind = "kind"

// Publisher is the part of the message queue the QueueSender needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Subscriber is the part of the message queue the Worker needs.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// QueueSender hands messages to the broker. Send returns once the broker
// has accepted the message; delivery happens in the mail worker.
type QueueSender struct {
	publisher Publisher
	channel   string
}

func NewQueueSender(publisher Publisher, channel string) *QueueSender {
	return &QueueSender{publisher: publisher, channel: channel}
}

func (q *QueueSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := q.publisher.Publish(ctx, q.channel, data, map[string]string{attrKind: "email"}); err != nil {
		return fmt.Errorf("publish mail: %w", err)
	}
	return nil
}

// Worker drains the mail channel and delivers each message with a Sender.
type Worker struct {
	subscriber Subscriber
	sender     Sender
	channel    string
	log        logging.Logger
}

func NewWorker(subscriber Subscriber, sender Sender, channel string, log logging.Logger) *Worker {
	return &Worker{
		subscriber: subscriber,
		sender:     sender,
		channel:    channel,
		log:        log,
	}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info(ctx, "mail worker started", "channel", w.channel)
	err := w.subscriber.Subscribe(ctx, w.channel, w.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handle delivers a single queued message. Malformed payloads are dropped.
// Delivery failures are returned to the broker for redelivery.
func (w *Worker) Handle(ctx context.Context, m mq.Message) error {
	var msg Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		w.log.Warn(ctx, "dropping malformed mail message", "message_id", m.ID, "error", err)
		return nil
	}
	if err := msg.Validate(); err != nil {
		w.log.Warn(ctx, "dropping invalid mail message", "message_id", m.ID, "error", err)
		return nil
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		if m.Redelivered {
			w.log.Error(ctx, "mail delivery failed after redelivery", "message_id", m.ID, "error", err)
			return err
		}
		w.log.Warn(ctx, "mail delivery failed, awaiting redelivery", "message_id", m.ID, "error", err)
		return err
	}
	w.log.Info(ctx, "mail delivered", "message_id", m.ID, "redelivered", m.Redelivered)
	return nil
}
