package memory_test

import (
	"context"
	"testing"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/domain/seed"
	"github.com/Leopold1975/awr_control/internal/awr/repository/inventoryrepo"
	"github.com/Leopold1975/awr_control/internal/awr/repository/memory"
	"github.com/Leopold1975/awr_control/internal/awr/repository/taskrepo"
	"github.com/Leopold1975/awr_control/internal/awr/repository/userrepo"
	"github.com/stretchr/testify/require"
)

func TestStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := memory.New(seed.Default())

	require.NoError(t, s.CreateUser(ctx, models.User{TelegramID: 111, Role: models.RoleAdmin}))
	require.ErrorIs(t, s.CreateUser(ctx, models.User{TelegramID: 111}), userrepo.ErrAlreadyExists)

	u, err := s.GetUserByTelegramID(ctx, 111)
	require.NoError(t, err)
	require.Equal(t, 1, u.ID)

	_, err = s.GetUserByTelegramID(ctx, 999)
	require.ErrorIs(t, err, userrepo.ErrNotFound)
}

func TestStoreTasks(t *testing.T) {
	ctx := context.Background()
	s := memory.New(seed.Default())

	id, err := s.CreateTask(ctx, models.Task{Address: "пр. Мира, 5", Status: models.StatusNew})
	require.NoError(t, err)
	require.Equal(t, 2, id, "ids continue after seeded tasks")

	got, err := s.GetTask(ctx, id)
	require.NoError(t, err)

	// изменение полученной копии не затрагивает хранилище.
	b := 7
	got.BrigadeID = &b
	again, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	require.Nil(t, again.BrigadeID)

	require.NoError(t, s.DeleteTask(ctx, id))
	require.ErrorIs(t, s.DeleteTask(ctx, id), taskrepo.ErrNotFound)
	require.ErrorIs(t, s.UpdateTask(ctx, models.Task{ID: id}), taskrepo.ErrNotFound)

	_, err = s.CreateReport(ctx, models.Report{TaskID: id, Part: 1})
	require.ErrorIs(t, err, taskrepo.ErrNotFound)
}

func TestStoreUnknownBrigade(t *testing.T) {
	ctx := context.Background()
	s := memory.New(seed.Default())
	unknown := 999

	_, err := s.CreateTask(ctx, models.Task{Address: "пр. Мира, 5", BrigadeID: &unknown})
	require.ErrorIs(t, err, taskrepo.ErrBrigadeNotFound)

	id, err := s.CreateTask(ctx, models.Task{Address: "пр. Мира, 5"})
	require.NoError(t, err)
	require.ErrorIs(t, s.UpdateTask(ctx, models.Task{ID: id, BrigadeID: &unknown}), taskrepo.ErrBrigadeNotFound)

	got, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got.BrigadeID)

	err = s.CreateUser(ctx, models.User{TelegramID: 555, Role: models.RoleCrew, BrigadeID: &unknown})
	require.ErrorIs(t, err, userrepo.ErrBrigadeNotFound)

	_, err = s.GetUserByTelegramID(ctx, 555)
	require.ErrorIs(t, err, userrepo.ErrNotFound)
}

func TestStoreTransferMaterial(t *testing.T) {
	ctx := context.Background()
	s := memory.New(seed.Default())

	m, err := s.TransferMaterial(ctx, "gofra", 2, 40)
	require.NoError(t, err)
	require.InDelta(t, 60.0, m.Total, 0.0001)

	brigades, err := s.ListBrigades(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.Holding{{MaterialID: "gofra", Amount: 40}}, brigades[1].Materials)

	_, err = s.TransferMaterial(ctx, "gofra", 2, -50)
	require.ErrorIs(t, err, inventoryrepo.ErrInsufficientQuantity)

	_, err = s.TransferMaterial(ctx, "gofra", 2, 61)
	require.ErrorIs(t, err, inventoryrepo.ErrInsufficientQuantity)

	_, err = s.TransferMaterial(ctx, "gofra", 42, 1)
	require.ErrorIs(t, err, inventoryrepo.ErrBrigadeNotFound)

	m, err = s.TransferMaterial(ctx, "gofra", 2, -40)
	require.NoError(t, err)
	require.InDelta(t, 100.0, m.Total, 0.0001)
}

func TestStoreAssignTool(t *testing.T) {
	ctx := context.Background()
	s := memory.New(seed.Default())

	two := 2
	_, err := s.AssignTool(ctx, "SR-1002", &two)
	require.ErrorIs(t, err, inventoryrepo.ErrToolAssigned)

	tool, err := s.AssignTool(ctx, "SR-1002", nil)
	require.NoError(t, err)
	require.Nil(t, tool.AssignedTo)

	tool, err = s.AssignTool(ctx, "SR-1002", &two)
	require.NoError(t, err)
	require.Equal(t, 2, *tool.AssignedTo)

	brigades, err := s.ListBrigades(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"SR-1002"}, brigades[1].Tools)
	require.Empty(t, brigades[0].Tools)
}
