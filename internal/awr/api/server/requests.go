package server

import (
	"encoding/json"
	"fmt"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
)

type LoginRequest struct {
	TelegramID int64  `json:"telegram_id"` //nolint:tagliatelle
	Password   string `json:"password"`
}

type AdjustRequest struct {
	MaterialID string  `json:"material_id"` //nolint:tagliatelle
	Delta      float64 `json:"delta"`
	BrigadeID  *int    `json:"brigade_id"` //nolint:tagliatelle
}

type AssignToolRequest struct {
	Serial    string `json:"serial"`
	BrigadeID *int   `json:"brigade_id"` //nolint:tagliatelle
}

type ReturnToolRequest struct {
	Serial string `json:"serial"`
}

type ReportRequest struct {
	Part    int            `json:"part"`
	Payload map[string]any `json:"payload"`
}

// GetTasksParams - фильтры GET /tasks.
type GetTasksParams struct {
	Status    *string
	BrigadeID *int
	Address   *string
}

func (p GetTasksParams) Filter() models.TaskFilter {
	var f models.TaskFilter

	if p.Status != nil {
		f.Status = models.Status(*p.Status)
	}

	f.BrigadeID = p.BrigadeID

	if p.Address != nil {
		f.Address = *p.Address
	}

	return f
}

// decodeTaskPatch разбирает тело PATCH /tasks/{id}. Отсутствующее поле не меняется,
// "brigade_id": null снимает задачу с бригады.
func decodeTaskPatch(body []byte) (models.TaskPatch, error) { //nolint:cyclop
	var (
		raw   map[string]json.RawMessage
		patch models.TaskPatch
	)

	if err := json.Unmarshal(body, &raw); err != nil {
		return patch, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	strFields := map[string]**string{
		"address":     &patch.Address,
		"description": &patch.Description,
		"access":      &patch.Access,
		"note":        &patch.Note,
	}

	for key, dst := range strFields {
		v, ok := raw[key]
		if !ok {
			continue
		}

		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return patch, fmt.Errorf("%w: field %s: %w", ErrBadRequest, key, err)
		}

		*dst = &s
	}

	if v, ok := raw["brigade_id"]; ok {
		if string(v) == "null" {
			patch.UnassignBrigade = true
		} else {
			var id int
			if err := json.Unmarshal(v, &id); err != nil {
				return patch, fmt.Errorf("%w: field brigade_id: %w", ErrBadRequest, err)
			}

			patch.BrigadeID = &id
		}
	}

	if v, ok := raw["status"]; ok {
		var st models.Status
		if err := json.Unmarshal(v, &st); err != nil {
			return patch, fmt.Errorf("%w: field status: %w", ErrBadRequest, err)
		}

		patch.Status = &st
	}

	return patch, nil
}
