// Package policy решает, может ли пользователь выполнить изменяющую операцию.
// Проверка выполняется сервисами на каждый вызов, независимо от того, какие пункты меню
// показывает клиент.
package policy

import (
	"errors"
	"fmt"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
)

var ErrForbidden = errors.New("operation not allowed for role")

type Action string

const (
	CreateTask      Action = "task.create"
	DeleteTask      Action = "task.delete"
	EditTask        Action = "task.edit"
	ReopenTask      Action = "task.reopen"
	AdjustInventory Action = "inventory.adjust"
	AssignTool      Action = "inventory.assign_tool"
	ExportInventory Action = "inventory.export"
	CreateUser      Action = "user.create"
)

var rules = map[Action][]models.Role{ //nolint:gochecknoglobals
	CreateTask:      {models.RoleAdmin},
	DeleteTask:      {models.RoleAdmin},
	EditTask:        {models.RoleAdmin},
	ReopenTask:      {models.RoleAdmin},
	AdjustInventory: {models.RoleAdmin, models.RoleStorekeeper},
	AssignTool:      {models.RoleAdmin, models.RoleStorekeeper},
	ExportInventory: {models.RoleAdmin, models.RoleStorekeeper},
	CreateUser:      {models.RoleAdmin},
}

func Check(a models.Actor, action Action) error {
	for _, r := range rules[action] {
		if r == a.Role {
			return nil
		}
	}

	return fmt.Errorf("%w: %s cannot %s", ErrForbidden, a.Role, action)
}

// CheckTaskUpdate: админ меняет любые поля, бригада - только статус и пометку своих задач.
func CheckTaskUpdate(a models.Actor, t models.Task, p models.TaskPatch) error {
	if a.Role == models.RoleAdmin {
		return nil
	}

	if a.Role == models.RoleCrew && a.InBrigade(t.BrigadeID) && p.OnlyStatusOrNote() {
		return nil
	}

	return fmt.Errorf("%w: %s cannot edit task %d", ErrForbidden, a.Role, t.ID)
}

// CheckReport: отчёт по задаче пишет админ или бригада, которой задача назначена.
func CheckReport(a models.Actor, t models.Task) error {
	if a.Role == models.RoleAdmin || (a.Role == models.RoleCrew && a.InBrigade(t.BrigadeID)) {
		return nil
	}

	return fmt.Errorf("%w: %s cannot report on task %d", ErrForbidden, a.Role, t.ID)
}
