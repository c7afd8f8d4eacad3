package taskservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	repo "github.com/Leopold1975/awr_control/internal/awr/repository/taskrepo"
	"github.com/Leopold1975/awr_control/internal/awr/services/policy"
	"github.com/Leopold1975/awr_control/pkg/logger"
)

var (
	ErrNotFound          = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPart       = errors.New("report part must be between 1 and 4")
	ErrUnknownBrigade    = errors.New("brigade not found")
)

type TaskService struct {
	taskRepo Repository
	lg       logger.Logger
	now      func() time.Time
}

type Repository interface {
	CreateTask(context.Context, models.Task) (int, error)
	GetTask(context.Context, int) (models.Task, error)
	UpdateTask(context.Context, models.Task) error
	DeleteTask(context.Context, int) error
	ListTasks(context.Context, models.TaskFilter) ([]models.Task, error)
	CreateReport(context.Context, models.Report) (int, error)
	ListReports(context.Context, int) ([]models.Report, error)
}

func New(taskRepo Repository, lg logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		lg:       lg,
		now:      time.Now,
	}
}

func (ts *TaskService) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	tasks, err := ts.taskRepo.ListTasks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list tasks error: %w", err)
	}

	return tasks, nil
}

func (ts *TaskService) GetTask(ctx context.Context, id int) (models.Task, error) {
	t, err := ts.taskRepo.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Task{}, ErrNotFound
		}

		return models.Task{}, fmt.Errorf("get task error: %w", err)
	}

	return t, nil
}

// CreateTask создаёт задачу в статусе "new".
func (ts *TaskService) CreateTask(ctx context.Context, actor models.Actor, nt models.NewTask) (models.Task, error) {
	if err := policy.Check(actor, policy.CreateTask); err != nil {
		return models.Task{}, err
	}

	t := models.Task{
		Address:     nt.Address,
		Description: nt.Description,
		Access:      nt.Access,
		Note:        nt.Note,
		BrigadeID:   nt.BrigadeID,
		Status:      models.StatusNew,
		CreatedBy:   actor.UserID,
		CreatedAt:   ts.now().UTC(),
	}

	id, err := ts.taskRepo.CreateTask(ctx, t)
	if err != nil {
		if errors.Is(err, repo.ErrBrigadeNotFound) {
			return models.Task{}, fmt.Errorf("%w: %d", ErrUnknownBrigade, *t.BrigadeID)
		}

		return models.Task{}, fmt.Errorf("create task error: %w", err)
	}

	t.ID = id

	ts.lg.Infof("task %d created by user %d", id, actor.UserID)

	return t, nil
}

func (ts *TaskService) UpdateTask(ctx context.Context, actor models.Actor, //nolint:cyclop
	id int, patch models.TaskPatch,
) (models.Task, error) {
	t, err := ts.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	if err := policy.CheckTaskUpdate(actor, t, patch); err != nil {
		return models.Task{}, err
	}

	if patch.Status != nil {
		next := *patch.Status

		if !next.Valid() {
			return models.Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
		}

		if !t.Status.CanBecome(next) {
			return models.Task{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
		}

		if t.Status == models.StatusDone && next != models.StatusDone {
			if err := policy.Check(actor, policy.ReopenTask); err != nil {
				return models.Task{}, err
			}
		}
	}

	updated := patch.Apply(t)

	if err := ts.taskRepo.UpdateTask(ctx, updated); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return models.Task{}, ErrNotFound
		case errors.Is(err, repo.ErrBrigadeNotFound):
			return models.Task{}, fmt.Errorf("%w: %d", ErrUnknownBrigade, *updated.BrigadeID)
		}

		return models.Task{}, fmt.Errorf("update task error: %w", err)
	}

	if updated.Status != t.Status {
		ts.lg.Infof("task %d status %s -> %s by user %d", id, t.Status, updated.Status, actor.UserID)
	}

	return updated, nil
}

// DeleteTask идемпотентна: удаление отсутствующей задачи не ошибка.
func (ts *TaskService) DeleteTask(ctx context.Context, actor models.Actor, id int) error {
	if err := policy.Check(actor, policy.DeleteTask); err != nil {
		return err
	}

	if err := ts.taskRepo.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			ts.lg.Debugf("delete task %d: already absent", id)

			return nil
		}

		return fmt.Errorf("delete task error: %w", err)
	}

	return nil
}

// AppendReport добавляет часть отчёта (1..4) по задаче.
func (ts *TaskService) AppendReport(ctx context.Context, actor models.Actor,
	taskID, part int, payload map[string]any,
) (models.Report, error) {
	if part < models.ReportPartComment || part > models.ReportPartMaterials {
		return models.Report{}, ErrInvalidPart
	}

	t, err := ts.GetTask(ctx, taskID)
	if err != nil {
		return models.Report{}, err
	}

	if err := policy.CheckReport(actor, t); err != nil {
		return models.Report{}, err
	}

	if payload == nil {
		payload = make(map[string]any)
	}

	r := models.Report{
		TaskID:    taskID,
		BrigadeID: t.BrigadeID,
		Part:      part,
		Payload:   payload,
		CreatedAt: ts.now().UTC(),
	}

	id, err := ts.taskRepo.CreateReport(ctx, r)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Report{}, ErrNotFound
		}

		return models.Report{}, fmt.Errorf("create report error: %w", err)
	}

	r.ID = id

	return r, nil
}

func (ts *TaskService) ListReports(ctx context.Context, taskID int) ([]models.Report, error) {
	if _, err := ts.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	reports, err := ts.taskRepo.ListReports(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list reports error: %w", err)
	}

	return reports, nil
}
