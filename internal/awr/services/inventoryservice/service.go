package inventoryservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/repository/inventorycache"
	repo "github.com/Leopold1975/awr_control/internal/awr/repository/inventoryrepo"
	"github.com/Leopold1975/awr_control/internal/awr/services/policy"
	"github.com/Leopold1975/awr_control/pkg/logger"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrToolAssigned         = errors.New("tool is assigned to another brigade")
	ErrInvalidAmount        = errors.New("amount must be non-zero")
)

type InventoryService struct {
	invRepo Repository
	cache   Cache
	lg      logger.Logger
}

type Repository interface {
	ListMaterials(context.Context) ([]models.Material, error)
	ListTools(context.Context) ([]models.Tool, error)
	ListBrigades(context.Context) ([]models.Brigade, error)
	AdjustMaterial(ctx context.Context, id string, delta float64) (models.Material, error)
	TransferMaterial(ctx context.Context, id string, brigadeID int, amount float64) (models.Material, error)
	AssignTool(ctx context.Context, serial string, brigadeID *int) (models.Tool, error)
}

type Cache interface {
	GetInventory(context.Context) (models.Inventory, error)
	// Generation - номер текущего поколения кэша, Invalidate его увеличивает.
	Generation(context.Context) (int64, error)
	SetInventory(ctx context.Context, inv models.Inventory, gen int64) error
	Invalidate(context.Context) error
}

func New(invRepo Repository, cache Cache, lg logger.Logger) *InventoryService {
	if cache == nil {
		cache = inventorycache.Nop{}
	}

	return &InventoryService{
		invRepo: invRepo,
		cache:   cache,
		lg:      lg,
	}
}

// ListInventory отдаёт остатки из кэша, при промахе читает хранилище и заполняет кэш.
func (is *InventoryService) ListInventory(ctx context.Context) (models.Inventory, error) {
	inv, err := is.cache.GetInventory(ctx)
	if err == nil {
		is.lg.Debugf("inventory cache hit")

		return inv, nil
	}

	if !errors.Is(err, inventorycache.ErrMiss) {
		is.lg.Errorf("get inventory cache error: %s", err.Error())
	}

	gen, err := is.cache.Generation(ctx)
	if err != nil {
		is.lg.Errorf("get inventory cache generation error: %s", err.Error())

		return is.load(ctx)
	}

	inv, err = is.load(ctx)
	if err != nil {
		return models.Inventory{}, err
	}

	is.store(ctx, inv, gen)

	return inv, nil
}

func (is *InventoryService) ListBrigades(ctx context.Context) ([]models.Brigade, error) {
	brigades, err := is.invRepo.ListBrigades(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brigades error: %w", err)
	}

	return brigades, nil
}

// AdjustMaterial меняет остаток на складе на delta (приход или списание).
func (is *InventoryService) AdjustMaterial(ctx context.Context, actor models.Actor,
	id string, delta float64,
) (models.Material, error) {
	if err := policy.Check(actor, policy.AdjustInventory); err != nil {
		return models.Material{}, err
	}

	m, err := is.invRepo.AdjustMaterial(ctx, id, delta)
	if err != nil {
		return models.Material{}, translate(err, "adjust material")
	}

	is.invalidate(ctx)
	is.lg.Infof("material %s adjusted by %g to %g by user %d", id, delta, m.Total, actor.UserID)

	return m, nil
}

// TransferMaterial выдаёт материал бригаде (amount > 0) или принимает обратно (amount < 0).
func (is *InventoryService) TransferMaterial(ctx context.Context, actor models.Actor,
	id string, brigadeID int, amount float64,
) (models.Material, error) {
	if err := policy.Check(actor, policy.AdjustInventory); err != nil {
		return models.Material{}, err
	}

	if amount == 0 {
		return models.Material{}, ErrInvalidAmount
	}

	m, err := is.invRepo.TransferMaterial(ctx, id, brigadeID, amount)
	if err != nil {
		return models.Material{}, translate(err, "transfer material")
	}

	is.invalidate(ctx)
	is.lg.Infof("material %s moved %g to brigade %d by user %d", id, amount, brigadeID, actor.UserID)

	return m, nil
}

// AssignTool закрепляет инструмент за бригадой, nil возвращает его на склад.
func (is *InventoryService) AssignTool(ctx context.Context, actor models.Actor,
	serial string, brigadeID *int,
) (models.Tool, error) {
	if err := policy.Check(actor, policy.AssignTool); err != nil {
		return models.Tool{}, err
	}

	t, err := is.invRepo.AssignTool(ctx, serial, brigadeID)
	if err != nil {
		return models.Tool{}, translate(err, "assign tool")
	}

	is.invalidate(ctx)

	return t, nil
}

func (is *InventoryService) ReturnTool(ctx context.Context, actor models.Actor, serial string) (models.Tool, error) {
	return is.AssignTool(ctx, actor, serial, nil)
}

// BackgroundRefresh прогревает кэш остатков каждые ttl до отмены ctx.
func (is *InventoryService) BackgroundRefresh(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	t := time.NewTicker(ttl)
	defer t.Stop()

	if err := is.refresh(ctx); err != nil {
		is.lg.Errorf("refresh error: %s", err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := is.refresh(ctx); err != nil {
				is.lg.Errorf("refresh error: %s", err.Error())
			}
		}
	}
}

func (is *InventoryService) refresh(ctx context.Context) error {
	gen, err := is.cache.Generation(ctx)
	if err != nil {
		return fmt.Errorf("get inventory cache generation error: %w", err)
	}

	inv, err := is.load(ctx)
	if err != nil {
		return err
	}

	err = is.cache.SetInventory(ctx, inv, gen)
	if err != nil && !errors.Is(err, inventorycache.ErrStale) {
		return fmt.Errorf("set inventory cache error: %w", err)
	}

	return nil
}

// store кладёт остатки в кэш, если поколение не сменилось, пока они читались из хранилища.
func (is *InventoryService) store(ctx context.Context, inv models.Inventory, gen int64) {
	err := is.cache.SetInventory(ctx, inv, gen)

	switch {
	case err == nil:
	case errors.Is(err, inventorycache.ErrStale):
		is.lg.Debugf("inventory changed while loading, cache not updated")
	default:
		is.lg.Errorf("set inventory cache error: %s", err.Error())
	}
}

func (is *InventoryService) load(ctx context.Context) (models.Inventory, error) {
	materials, err := is.invRepo.ListMaterials(ctx)
	if err != nil {
		return models.Inventory{}, fmt.Errorf("list materials error: %w", err)
	}

	tools, err := is.invRepo.ListTools(ctx)
	if err != nil {
		return models.Inventory{}, fmt.Errorf("list tools error: %w", err)
	}

	return models.Inventory{Materials: materials, Tools: tools}, nil
}

func (is *InventoryService) invalidate(ctx context.Context) {
	if err := is.cache.Invalidate(ctx); err != nil {
		is.lg.Errorf("invalidate inventory cache error: %s", err.Error())
	}
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	case errors.Is(err, repo.ErrBrigadeNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	case errors.Is(err, repo.ErrInsufficientQuantity):
		return ErrInsufficientQuantity
	case errors.Is(err, repo.ErrToolAssigned):
		return ErrToolAssigned
	default:
		return fmt.Errorf("%s error: %w", op, err)
	}
}
