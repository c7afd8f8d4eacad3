package inventoryservice_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/domain/seed"
	"github.com/Leopold1975/awr_control/internal/awr/repository/inventorycache"
	cache "github.com/Leopold1975/awr_control/internal/awr/repository/inventorycache/redis"
	"github.com/Leopold1975/awr_control/internal/awr/repository/memory"
	"github.com/Leopold1975/awr_control/internal/awr/services/inventoryservice"
	"github.com/Leopold1975/awr_control/internal/awr/services/policy"
	"github.com/Leopold1975/awr_control/pkg/logger"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var (
	klad  = models.Actor{UserID: 3, Role: models.RoleStorekeeper}          //nolint:gochecknoglobals
	admin = models.Actor{UserID: 1, Role: models.RoleAdmin}                //nolint:gochecknoglobals
	crew  = models.Actor{UserID: 2, Role: models.RoleCrew, BrigadeID: nil} //nolint:gochecknoglobals
)

func newService(t *testing.T) *inventoryservice.InventoryService {
	t.Helper()

	return inventoryservice.New(memory.New(seed.Default()), nil, logger.NewNop())
}

func material(t *testing.T, is *inventoryservice.InventoryService, id string) models.Material {
	t.Helper()

	inv, err := is.ListInventory(context.Background())
	require.NoError(t, err)

	for _, m := range inv.Materials {
		if m.ID == id {
			return m
		}
	}

	t.Fatalf("material %s not found", id)

	return models.Material{}
}

func TestAdjustMaterial(t *testing.T) {
	ctx := context.Background()
	is := newService(t)

	m, err := is.AdjustMaterial(ctx, klad, "c_vok_4", -30)
	require.NoError(t, err)
	require.InDelta(t, 70.0, m.Total, 0.0001)

	_, err = is.AdjustMaterial(ctx, klad, "c_vok_8", -10)
	require.NoError(t, err)
	m, err = is.AdjustMaterial(ctx, klad, "c_vok_8", 10)
	require.NoError(t, err)
	require.InDelta(t, 100.0, m.Total, 0.0001)

	_, err = is.AdjustMaterial(ctx, klad, "unknown", 1)
	require.ErrorIs(t, err, inventoryservice.ErrNotFound)

	_, err = is.AdjustMaterial(ctx, klad, "c_vok_12", -101)
	require.ErrorIs(t, err, inventoryservice.ErrInsufficientQuantity)
	require.InDelta(t, 100.0, material(t, is, "c_vok_12").Total, 0.0001)

	_, err = is.AdjustMaterial(ctx, crew, "c_vok_12", 1)
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = is.AdjustMaterial(ctx, admin, "c_vok_12", 5)
	require.NoError(t, err)
}

func TestTransferMaterial(t *testing.T) {
	ctx := context.Background()
	is := newService(t)

	_, err := is.TransferMaterial(ctx, klad, "bo16", 3, 0)
	require.ErrorIs(t, err, inventoryservice.ErrInvalidAmount)

	m, err := is.TransferMaterial(ctx, klad, "bo16", 3, 25)
	require.NoError(t, err)
	require.InDelta(t, 75.0, m.Total, 0.0001)

	brigades, err := is.ListBrigades(ctx)
	require.NoError(t, err)
	require.Len(t, brigades, seed.BrigadeCount)
	require.Equal(t, []models.Holding{{MaterialID: "bo16", Amount: 25}}, brigades[2].Materials)

	_, err = is.TransferMaterial(ctx, klad, "bo16", 3, -30)
	require.ErrorIs(t, err, inventoryservice.ErrInsufficientQuantity)

	_, err = is.TransferMaterial(ctx, klad, "bo16", 99, 1)
	require.ErrorIs(t, err, inventoryservice.ErrNotFound)
}

func TestAssignTool(t *testing.T) {
	ctx := context.Background()
	is := newService(t)
	five := 5

	tool, err := is.AssignTool(ctx, klad, "SR-1001", &five)
	require.NoError(t, err)
	require.Equal(t, 5, *tool.AssignedTo)

	// повторная выдача той же бригаде ничего не меняет.
	_, err = is.AssignTool(ctx, klad, "SR-1001", &five)
	require.NoError(t, err)

	_, err = is.AssignTool(ctx, klad, "SR-1002", &five)
	require.ErrorIs(t, err, inventoryservice.ErrToolAssigned)

	tool, err = is.ReturnTool(ctx, klad, "SR-1001")
	require.NoError(t, err)
	require.Nil(t, tool.AssignedTo)

	_, err = is.AssignTool(ctx, klad, "SR-9999", nil)
	require.ErrorIs(t, err, inventoryservice.ErrNotFound)

	_, err = is.AssignTool(ctx, crew, "SR-1001", &five)
	require.ErrorIs(t, err, policy.ErrForbidden)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	is := newService(t)

	_, err := is.ExportCSV(ctx, crew)
	require.ErrorIs(t, err, policy.ErrForbidden)

	out, err := is.ExportCSV(ctx, klad)
	require.NoError(t, err)

	lines := strings.Split(string(out), "\n")
	require.Len(t, lines, 1+8+2)
	require.Equal(t, `"Материал/Инструмент","Тип","Единица/серия","Остаток"`, lines[0])
	require.Equal(t, `"Кабель ВОК 4","Материал","м","100"`, lines[1])
	require.Equal(t, `"перфоратор проводной","Инструмент","SR-1001","На складе"`, lines[9])
	require.Equal(t, `"перфоратор беспроводной","Инструмент","SR-1002","Бриг 1"`, lines[10])
}

func TestEncodeCSVQuotes(t *testing.T) {
	out := inventoryservice.EncodeCSV(models.Inventory{
		Materials: []models.Material{{Name: `Муфта "МТОК"`, Unit: models.UnitPiece, Total: 2.5}},
	})

	require.Equal(t, `"Материал/Инструмент","Тип","Единица/серия","Остаток"`+"\n"+
		`"Муфта ""МТОК""","Материал","шт","2.5"`, string(out))
}

type failingCache struct{ inventorycache.Nop }

func (failingCache) GetInventory(context.Context) (models.Inventory, error) {
	return models.Inventory{}, errors.New("connection refused")
}

func (failingCache) Invalidate(context.Context) error {
	return errors.New("connection refused")
}

func TestCacheFailuresDoNotFailRequests(t *testing.T) {
	ctx := context.Background()
	is := inventoryservice.New(memory.New(seed.Default()), failingCache{}, logger.NewNop())

	inv, err := is.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, inv.Materials, 8)

	_, err = is.AdjustMaterial(ctx, klad, "gofra", 1)
	require.NoError(t, err)
}

func TestRedisCacheInvalidatedOnWrite(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	is := inventoryservice.New(memory.New(seed.Default()), cache.NewWithClient(client, time.Minute), logger.NewNop())

	_, err = is.ListInventory(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("inventory:materials"))

	_, err = is.AdjustMaterial(ctx, klad, "c_vok_4", -30)
	require.NoError(t, err)
	require.False(t, mr.Exists("inventory:materials"))

	require.InDelta(t, 70.0, material(t, is, "c_vok_4").Total, 0.0001)
	require.True(t, mr.Exists("inventory:materials"))
}

// writeDuringLoad выполняет запись между чтением материалов и инструментов.
type writeDuringLoad struct {
	*memory.Store
	once  sync.Once
	write func()
}

func (w *writeDuringLoad) ListTools(ctx context.Context) ([]models.Tool, error) {
	w.once.Do(w.write)

	return w.Store.ListTools(ctx) //nolint:wrapcheck
}

func newRedisCache(t *testing.T) (cache.InventoryCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewWithClient(client, time.Minute), mr
}

func TestWriteDuringLoadIsNotCachedStale(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	repo := &writeDuringLoad{Store: memory.New(seed.Default())} //nolint:exhaustruct
	is := inventoryservice.New(repo, c, logger.NewNop())

	repo.write = func() {
		_, err := is.AdjustMaterial(ctx, klad, "c_vok_4", -30)
		require.NoError(t, err)
	}

	// ответ, собранный до записи, может быть старым, но в кэш он попасть не должен.
	_, err := is.ListInventory(ctx)
	require.NoError(t, err)
	require.False(t, mr.Exists("inventory:materials"))

	require.InDelta(t, 70.0, material(t, is, "c_vok_4").Total, 0.0001)
	require.True(t, mr.Exists("inventory:materials"))
	require.InDelta(t, 70.0, material(t, is, "c_vok_4").Total, 0.0001)
}

func TestRefreshDuringWriteIsNotCachedStale(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, mr := newRedisCache(t)

	repo := &writeDuringLoad{Store: memory.New(seed.Default())} //nolint:exhaustruct
	is := inventoryservice.New(repo, c, logger.NewNop())

	var writeErr error

	written := make(chan struct{})
	repo.write = func() {
		defer close(written)

		_, writeErr = is.AdjustMaterial(context.Background(), klad, "c_vok_4", -30)
	}

	done := make(chan struct{})

	go func() {
		defer close(done)
		is.BackgroundRefresh(ctx, time.Hour)
	}()

	<-written
	require.NoError(t, writeErr)
	cancel()
	<-done

	require.False(t, mr.Exists("inventory:materials"))
	require.InDelta(t, 70.0, material(t, is, "c_vok_4").Total, 0.0001)
}

func TestBackgroundRefreshWarmsCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	is := inventoryservice.New(memory.New(seed.Default()), cache.NewWithClient(client, time.Minute), logger.NewNop())

	done := make(chan struct{})

	go func() {
		defer close(done)
		is.BackgroundRefresh(ctx, time.Hour)
	}()

	require.Eventually(t, func() bool { return mr.Exists("inventory:tools") }, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
