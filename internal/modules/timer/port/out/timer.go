package out

import (
	"context"

	"timekit/internal/platform/event"
)

// KeyValueStore persists one serialized record per timer key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

type EventPublisher interface {
	Publish(e event.Event)
}
