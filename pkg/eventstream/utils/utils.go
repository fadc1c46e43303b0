// Package utils builds the event publisher selected by configuration.
package utils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/chatstream/pkg/config"
	"github.com/papercomputeco/chatstream/pkg/eventstream"
	"github.com/papercomputeco/chatstream/pkg/eventstream/kafka"
	"github.com/papercomputeco/chatstream/pkg/eventstream/nop"
)

// NewPublisher returns the publisher named by cfg.Provider.
func NewPublisher(cfg config.EventsConfig, logger *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case config.EventsNone, "":
		return nop.NewPublisher(), nil

	case config.EventsKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.BrokerList(),
			Topic:   cfg.Topic,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("publishing message events to kafka",
			"brokers", cfg.Brokers,
			"topic", cfg.Topic,
		)
		return p, nil

	default:
		return nil, fmt.Errorf("unknown events provider %q", cfg.Provider)
	}
}
