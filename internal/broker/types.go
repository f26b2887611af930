package broker

import (
	"context"

	"cargopipe/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, event models.OrderEvent) error
	Close() error
}
