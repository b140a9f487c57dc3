package app

import (
	"go.uber.org/zap"

	"taxi24/internal/config"
	"taxi24/internal/events"
)

// NewPublisher returns the lifecycle event publisher selected by cfg.Backend.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, error) {
	switch cfg.Backend {
	case config.EventsKafka:
		logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsRabbitMQ:
		pub, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		logger.Info("publishing events to rabbitmq", zap.String("exchange", cfg.RabbitMQExchange))
		return pub, nil
	default:
		return events.NopPublisher{}, nil
	}
}
