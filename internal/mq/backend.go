package mq

import (
	"context"
	"fmt"

	"github.com/notekeeper/apiserver/config"
)

// NewBackend dials the broker named by cfg.Driver.
func NewBackend(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch cfg.Driver {
	case "", "rabbitmq":
		return NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unsupported mq driver %q", cfg.Driver)
	}
}
