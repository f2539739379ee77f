package out

import (
	"context"

	"timekit/internal/modules/widget/domain"
)

type PresetStore interface {
	List(ctx context.Context) ([]domain.Preset, error)
}
