package models

import (
	"strings"
	"time"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusPostponed  Status = "postponed"
	StatusProblem    Status = "problem"
)

var transitions = map[Status][]Status{ //nolint:gochecknoglobals
	StatusNew:        {StatusInProgress, StatusPostponed, StatusProblem},
	StatusInProgress: {StatusDone, StatusPostponed, StatusProblem},
	StatusPostponed:  {StatusInProgress, StatusProblem},
	StatusProblem:    {StatusInProgress, StatusPostponed},
	StatusDone:       {StatusInProgress},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]

	return ok
}

// CanBecome сообщает, допустим ли переход s -> to. Повтор текущего статуса допустим всегда.
func (s Status) CanBecome(to Status) bool {
	if s == to {
		return to.Valid()
	}

	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

type Task struct {
	ID          int       `json:"id"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Access      string    `json:"access"`
	Note        string    `json:"note"`
	BrigadeID   *int      `json:"brigade_id"` //nolint:tagliatelle
	Status      Status    `json:"status"`
	CreatedBy   int       `json:"created_by,omitempty"` //nolint:tagliatelle
	CreatedAt   time.Time `json:"created_at"`           //nolint:tagliatelle
}

type NewTask struct {
	Address     string `json:"address"`
	Description string `json:"description"`
	Access      string `json:"access"`
	Note        string `json:"note"`
	BrigadeID   *int   `json:"brigade_id"` //nolint:tagliatelle
}

// TaskPatch - частичное обновление задачи. nil означает "не менять",
// UnassignBrigade снимает задачу с бригады.
type TaskPatch struct {
	Address         *string
	Description     *string
	Access          *string
	Note            *string
	BrigadeID       *int
	UnassignBrigade bool
	Status          *Status
}

// OnlyStatusOrNote сообщает, что патч затрагивает только статус и пометку.
func (p TaskPatch) OnlyStatusOrNote() bool {
	return p.Address == nil && p.Description == nil && p.Access == nil &&
		p.BrigadeID == nil && !p.UnassignBrigade
}

// Apply возвращает копию t с применённым патчем.
func (p TaskPatch) Apply(t Task) Task {
	if p.Address != nil {
		t.Address = *p.Address
	}

	if p.Description != nil {
		t.Description = *p.Description
	}

	if p.Access != nil {
		t.Access = *p.Access
	}

	if p.Note != nil {
		t.Note = *p.Note
	}

	if p.UnassignBrigade {
		t.BrigadeID = nil
	} else if p.BrigadeID != nil {
		id := *p.BrigadeID
		t.BrigadeID = &id
	}

	if p.Status != nil {
		t.Status = *p.Status
	}

	return t
}

// TaskFilter - пустые поля не фильтруют.
type TaskFilter struct {
	Status    Status
	BrigadeID *int
	Address   string
}

func (f TaskFilter) Match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}

	if f.BrigadeID != nil && (t.BrigadeID == nil || *t.BrigadeID != *f.BrigadeID) {
		return false
	}

	if f.Address != "" && !strings.Contains(t.Address, f.Address) {
		return false
	}

	return true
}

const (
	ReportPartComment   = 1
	ReportPartAccess    = 2
	ReportPartPhoto     = 3
	ReportPartMaterials = 4
)

type Report struct {
	ID        int            `json:"id"`
	TaskID    int            `json:"task_id"`    //nolint:tagliatelle
	BrigadeID *int           `json:"brigade_id"` //nolint:tagliatelle
	Part      int            `json:"part"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"` //nolint:tagliatelle
}
