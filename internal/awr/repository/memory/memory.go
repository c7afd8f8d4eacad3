// Package memory - хранилище задач и склада в памяти процесса.
// Store создаётся при старте приложения и передаётся сервисам явно.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/domain/seed"
	"github.com/Leopold1975/awr_control/internal/awr/repository/inventoryrepo"
	"github.com/Leopold1975/awr_control/internal/awr/repository/taskrepo"
	"github.com/Leopold1975/awr_control/internal/awr/repository/userrepo"
)

type Store struct {
	mu sync.RWMutex

	users      []models.User
	nextUserID int

	brigades []models.Brigade
	holdings map[int]map[string]float64

	materials []models.Material
	tools     []models.Tool

	tasks      []models.Task
	nextTaskID int

	reports      []models.Report
	nextReportID int
}

// New загружает бригады, материалы, инструмент и задачи из data.
// Пользователи добавляются отдельно через CreateUser, чтобы пароли хэшировал authservice.
func New(data seed.Data) *Store {
	s := &Store{
		nextUserID:   1,
		holdings:     make(map[int]map[string]float64),
		nextTaskID:   1,
		nextReportID: 1,
	}

	for _, b := range data.Brigades {
		s.brigades = append(s.brigades, models.Brigade{ID: b.ID, Name: b.Name})
		s.holdings[b.ID] = make(map[string]float64)
	}

	s.materials = append(s.materials, data.Materials...)

	for _, t := range data.Tools {
		t.AssignedTo = copyInt(t.AssignedTo)
		s.tools = append(s.tools, t)
	}

	for _, t := range data.Tasks {
		s.tasks = append(s.tasks, copyTask(t))

		if t.ID >= s.nextTaskID {
			s.nextTaskID = t.ID + 1
		}
	}

	return s
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

func copyTask(t models.Task) models.Task {
	t.BrigadeID = copyInt(t.BrigadeID)

	return t
}

func copyUser(u models.User) models.User {
	u.BrigadeID = copyInt(u.BrigadeID)

	return u
}

func copyTool(t models.Tool) models.Tool {
	t.AssignedTo = copyInt(t.AssignedTo)

	return t
}

// hasBrigade повторяет внешний ключ brigade_id из postgres: nil допустим.
func (s *Store) hasBrigade(id *int) bool {
	if id == nil {
		return true
	}

	_, ok := s.holdings[*id]

	return ok
}

func (s *Store) Shutdown(context.Context) error {
	return nil
}

// Users.

func (s *Store) CreateUser(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.TelegramID == u.TelegramID {
			return userrepo.ErrAlreadyExists
		}
	}

	if !s.hasBrigade(u.BrigadeID) {
		return userrepo.ErrBrigadeNotFound
	}

	if u.ID == 0 {
		u.ID = s.nextUserID
	}

	if u.ID >= s.nextUserID {
		s.nextUserID = u.ID + 1
	}

	s.users = append(s.users, copyUser(u))

	return nil
}

func (s *Store) GetUserByTelegramID(_ context.Context, telegramID int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.TelegramID == telegramID {
			return copyUser(u), nil
		}
	}

	return models.User{}, userrepo.ErrNotFound
}

// Tasks.

func (s *Store) CreateTask(_ context.Context, t models.Task) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasBrigade(t.BrigadeID) {
		return 0, taskrepo.ErrBrigadeNotFound
	}

	t.ID = s.nextTaskID
	s.nextTaskID++

	s.tasks = append(s.tasks, copyTask(t))

	return t.ID, nil
}

func (s *Store) GetTask(_ context.Context, id int) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.taskIndex(id)
	if i < 0 {
		return models.Task{}, taskrepo.ErrNotFound
	}

	return copyTask(s.tasks[i]), nil
}

func (s *Store) UpdateTask(_ context.Context, t models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(t.ID)
	if i < 0 {
		return taskrepo.ErrNotFound
	}

	if !s.hasBrigade(t.BrigadeID) {
		return taskrepo.ErrBrigadeNotFound
	}

	s.tasks[i] = copyTask(t)

	return nil
}

func (s *Store) DeleteTask(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return taskrepo.ErrNotFound
	}

	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)

	return nil
}

func (s *Store) ListTasks(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Task, 0, len(s.tasks))

	for _, t := range s.tasks {
		if f.Match(t) {
			res = append(res, copyTask(t))
		}
	}

	return res, nil
}

func (s *Store) taskIndex(id int) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}

	return -1
}

func (s *Store) CreateReport(_ context.Context, r models.Report) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taskIndex(r.TaskID) < 0 {
		return 0, taskrepo.ErrNotFound
	}

	r.ID = s.nextReportID
	s.nextReportID++
	r.BrigadeID = copyInt(r.BrigadeID)

	s.reports = append(s.reports, r)

	return r.ID, nil
}

func (s *Store) ListReports(_ context.Context, taskID int) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Report, 0)

	for _, r := range s.reports {
		if r.TaskID == taskID {
			r.BrigadeID = copyInt(r.BrigadeID)
			res = append(res, r)
		}
	}

	return res, nil
}

// Inventory.

func (s *Store) ListMaterials(context.Context) ([]models.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Material(nil), s.materials...), nil
}

func (s *Store) ListTools(context.Context) ([]models.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		res = append(res, copyTool(t))
	}

	return res, nil
}

func (s *Store) ListBrigades(context.Context) ([]models.Brigade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Brigade, 0, len(s.brigades))

	for _, b := range s.brigades {
		b.Materials = make([]models.Holding, 0)
		b.Tools = make([]string, 0)

		for _, m := range s.materials {
			if amount := s.holdings[b.ID][m.ID]; amount != 0 {
				b.Materials = append(b.Materials, models.Holding{MaterialID: m.ID, Amount: amount})
			}
		}

		for _, t := range s.tools {
			if t.AssignedTo != nil && *t.AssignedTo == b.ID {
				b.Tools = append(b.Tools, t.Serial)
			}
		}

		sort.Strings(b.Tools)

		res = append(res, b)
	}

	return res, nil
}

func (s *Store) AdjustMaterial(_ context.Context, id string, delta float64) (models.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.materialIndex(id)
	if i < 0 {
		return models.Material{}, inventoryrepo.ErrNotFound
	}

	if s.materials[i].Total+delta < 0 {
		return models.Material{}, inventoryrepo.ErrInsufficientQuantity
	}

	s.materials[i].Total += delta

	return s.materials[i], nil
}

// TransferMaterial переносит amount со склада в бригаду (amount > 0) или обратно (amount < 0).
func (s *Store) TransferMaterial(_ context.Context, id string, brigadeID int, amount float64) (models.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.materialIndex(id)
	if i < 0 {
		return models.Material{}, inventoryrepo.ErrNotFound
	}

	held, ok := s.holdings[brigadeID]
	if !ok {
		return models.Material{}, inventoryrepo.ErrBrigadeNotFound
	}

	if s.materials[i].Total-amount < 0 || held[id]+amount < 0 {
		return models.Material{}, inventoryrepo.ErrInsufficientQuantity
	}

	s.materials[i].Total -= amount
	held[id] += amount

	return s.materials[i], nil
}

func (s *Store) AssignTool(_ context.Context, serial string, brigadeID *int) (models.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := -1

	for j, t := range s.tools {
		if t.Serial == serial {
			i = j

			break
		}
	}

	if i < 0 {
		return models.Tool{}, inventoryrepo.ErrNotFound
	}

	if brigadeID != nil {
		if _, ok := s.holdings[*brigadeID]; !ok {
			return models.Tool{}, inventoryrepo.ErrBrigadeNotFound
		}

		if cur := s.tools[i].AssignedTo; cur != nil && *cur != *brigadeID {
			return models.Tool{}, inventoryrepo.ErrToolAssigned
		}
	}

	s.tools[i].AssignedTo = copyInt(brigadeID)

	return copyTool(s.tools[i]), nil
}

func (s *Store) materialIndex(id string) int {
	for i, m := range s.materials {
		if m.ID == id {
			return i
		}
	}

	return -1
}
