package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/services/authservice"
	"github.com/Leopold1975/awr_control/internal/awr/services/inventoryservice"
	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/Leopold1975/awr_control/pkg/logger"
)

const maxBodySize = 1 << 20

type Server struct {
	serv             *http.Server
	authService      AuthService
	taskService      TaskService
	inventoryService InventoryService
	lg               logger.Logger
}

type AuthService interface {
	Login(ctx context.Context, telegramID int64, password string) (authservice.LoginResponse, error)
	Auth(token string) (models.Actor, error)
	CreateUser(context.Context, models.Actor, authservice.CreateUserRequest) (models.User, error)
}

type TaskService interface {
	ListTasks(context.Context, models.TaskFilter) ([]models.Task, error)
	GetTask(context.Context, int) (models.Task, error)
	CreateTask(context.Context, models.Actor, models.NewTask) (models.Task, error)
	UpdateTask(context.Context, models.Actor, int, models.TaskPatch) (models.Task, error)
	DeleteTask(context.Context, models.Actor, int) error
	AppendReport(ctx context.Context, actor models.Actor, taskID, part int, payload map[string]any) (models.Report, error)
	ListReports(context.Context, int) ([]models.Report, error)
}

type InventoryService interface {
	ListInventory(context.Context) (models.Inventory, error)
	ListBrigades(context.Context) ([]models.Brigade, error)
	AdjustMaterial(ctx context.Context, actor models.Actor, id string, delta float64) (models.Material, error)
	TransferMaterial(ctx context.Context, actor models.Actor, id string, brigadeID int,
		amount float64) (models.Material, error)
	AssignTool(ctx context.Context, actor models.Actor, serial string, brigadeID *int) (models.Tool, error)
	ReturnTool(ctx context.Context, actor models.Actor, serial string) (models.Tool, error)
	ExportCSV(context.Context, models.Actor) ([]byte, error)
}

func New(cfg config.Server, as AuthService, ts TaskService, is InventoryService, lg logger.Logger) *Server {
	s := &Server{
		authService:      as,
		taskService:      ts,
		inventoryService: is,
		lg:               lg,
	}

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}

		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.serv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode error: %w", ErrBadRequest, err)
	}

	return nil
}

// Аутентификация по Telegram ID и паролю
// (POST /auth/login).
func (s *Server) PostLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := decode(r, &req); err != nil {
		handleError(w, err)

		return
	}

	if req.TelegramID == 0 || req.Password == "" {
		handleError(w, fmt.Errorf("%w: telegram_id and password required", ErrBadRequest))

		return
	}

	resp, err := s.authService.Login(r.Context(), req.TelegramID, req.Password)
	if err != nil {
		handleError(w, fmt.Errorf("login error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Создание пользователя
// (POST /users).
func (s *Server) PostUser(w http.ResponseWriter, r *http.Request) {
	var req authservice.CreateUserRequest

	if err := decode(r, &req); err != nil {
		handleError(w, err)

		return
	}

	u, err := s.authService.CreateUser(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		handleError(w, fmt.Errorf("create user error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// Список задач с фильтрами по статусу, бригаде и адресу
// (GET /tasks).
func (s *Server) GetTasks(w http.ResponseWriter, r *http.Request, params GetTasksParams) {
	tasks, err := s.taskService.ListTasks(r.Context(), params.Filter())
	if err != nil {
		handleError(w, fmt.Errorf("list tasks error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Создание задачи
// (POST /tasks).
func (s *Server) PostTask(w http.ResponseWriter, r *http.Request) {
	var nt models.NewTask

	if err := decode(r, &nt); err != nil {
		handleError(w, err)

		return
	}

	t, err := s.taskService.CreateTask(r.Context(), actorFrom(r.Context()), nt)
	if err != nil {
		handleError(w, fmt.Errorf("create task error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// (GET /tasks/{id}).
func (s *Server) GetTaskID(w http.ResponseWriter, r *http.Request, id int) {
	t, err := s.taskService.GetTask(r.Context(), id)
	if err != nil {
		handleError(w, fmt.Errorf("get task error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, t)
}

// Частичное обновление задачи
// (PATCH /tasks/{id}).
func (s *Server) PatchTaskID(w http.ResponseWriter, r *http.Request, id int) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		handleError(w, fmt.Errorf("%w: read body error: %w", ErrBadRequest, err))

		return
	}

	patch, err := decodeTaskPatch(body)
	if err != nil {
		handleError(w, err)

		return
	}

	t, err := s.taskService.UpdateTask(r.Context(), actorFrom(r.Context()), id, patch)
	if err != nil {
		handleError(w, fmt.Errorf("update task error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, t)
}

// Удаление задачи, отсутствующая задача тоже даёт 204
// (DELETE /tasks/{id}).
func (s *Server) DeleteTaskID(w http.ResponseWriter, r *http.Request, id int) {
	if err := s.taskService.DeleteTask(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, fmt.Errorf("delete task error: %w", err))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Часть отчёта бригады по задаче
// (POST /tasks/{id}/report).
func (s *Server) PostTaskReport(w http.ResponseWriter, r *http.Request, id int) {
	var req ReportRequest

	if err := decode(r, &req); err != nil {
		handleError(w, err)

		return
	}

	rep, err := s.taskService.AppendReport(r.Context(), actorFrom(r.Context()), id, req.Part, req.Payload)
	if err != nil {
		handleError(w, fmt.Errorf("append report error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, rep)
}

// (GET /tasks/{id}/reports).
func (s *Server) GetTaskReports(w http.ResponseWriter, r *http.Request, id int) {
	reports, err := s.taskService.ListReports(r.Context(), id)
	if err != nil {
		handleError(w, fmt.Errorf("list reports error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, reports)
}

// Бригады с закреплёнными материалами и инструментом
// (GET /brigades).
func (s *Server) GetBrigades(w http.ResponseWriter, r *http.Request) {
	brigades, err := s.inventoryService.ListBrigades(r.Context())
	if err != nil {
		handleError(w, fmt.Errorf("list brigades error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, brigades)
}

// Остатки склада
// (GET /inventory).
func (s *Server) GetInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := s.inventoryService.ListInventory(r.Context())
	if err != nil {
		handleError(w, fmt.Errorf("list inventory error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, inv)
}

// Приход/списание материала, с brigade_id - выдача бригаде или возврат от неё
// (POST /inventory/adjust).
func (s *Server) PostInventoryAdjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest

	if err := decode(r, &req); err != nil {
		handleError(w, err)

		return
	}

	var (
		m   models.Material
		err error
	)

	actor := actorFrom(r.Context())

	if req.BrigadeID != nil {
		m, err = s.inventoryService.TransferMaterial(r.Context(), actor, req.MaterialID, *req.BrigadeID, req.Delta)
	} else {
		m, err = s.inventoryService.AdjustMaterial(r.Context(), actor, req.MaterialID, req.Delta)
	}

	if err != nil {
		handleError(w, fmt.Errorf("adjust material error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, m)
}

// Выдача инструмента бригаде, brigade_id: null возвращает его на склад
// (POST /tools/assign).
func (s *Server) PostToolAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignToolRequest

	if err := decode(r, &req); err != nil {
		handleError(w, err)

		return
	}

	t, err := s.inventoryService.AssignTool(r.Context(), actorFrom(r.Context()), req.Serial, req.BrigadeID)
	if err != nil {
		handleError(w, fmt.Errorf("assign tool error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, t)
}

// (POST /tools/return).
func (s *Server) PostToolReturn(w http.ResponseWriter, r *http.Request) {
	var req ReturnToolRequest

	if err := decode(r, &req); err != nil {
		handleError(w, err)

		return
	}

	t, err := s.inventoryService.ReturnTool(r.Context(), actorFrom(r.Context()), req.Serial)
	if err != nil {
		handleError(w, fmt.Errorf("return tool error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, t)
}

// Выгрузка остатков в CSV
// (GET /export/inventory).
func (s *Server) GetExportInventory(w http.ResponseWriter, r *http.Request) {
	data, err := s.inventoryService.ExportCSV(r.Context(), actorFrom(r.Context()))
	if err != nil {
		handleError(w, fmt.Errorf("export inventory error: %w", err))

		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+inventoryservice.ExportFilename)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
