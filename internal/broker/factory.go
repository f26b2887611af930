package broker

import (
	"fmt"

	"cargopipe/internal/config"
	"cargopipe/internal/logger"
)

func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case "kafka":
		return NewKafkaProducer(cfg.Kafka, log), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}
