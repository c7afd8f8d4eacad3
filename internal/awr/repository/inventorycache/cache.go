package inventorycache

import (
	"context"
	"errors"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
)

var (
	ErrMiss  = errors.New("inventory cache miss")
	ErrStale = errors.New("inventory cache generation changed")
)

// Nop используется, когда redis не настроен: всегда промах, запись игнорируется.
type Nop struct{}

func (Nop) GetInventory(context.Context) (models.Inventory, error) {
	return models.Inventory{}, ErrMiss
}

func (Nop) Generation(context.Context) (int64, error) {
	return 0, nil
}

func (Nop) SetInventory(context.Context, models.Inventory, int64) error {
	return nil
}

func (Nop) Invalidate(context.Context) error {
	return nil
}
