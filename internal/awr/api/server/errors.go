package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Leopold1975/awr_control/internal/awr/services/authservice"
	"github.com/Leopold1975/awr_control/internal/awr/services/inventoryservice"
	"github.com/Leopold1975/awr_control/internal/awr/services/policy"
	"github.com/Leopold1975/awr_control/internal/awr/services/taskservice"
)

var (
	ErrTokenRequired = errors.New("token required")
	ErrBadRequest    = errors.New("bad request")
)

type Error struct {
	Err string `json:"error"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		return []byte(`{"error": "marshal error"}`)
	}

	return b
}

// statusFor сопоставляет ошибку сервисов с HTTP-статусом.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrTokenRequired),
		errors.Is(err, authservice.ErrInvalidCredentials),
		errors.Is(err, authservice.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, policy.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, taskservice.ErrNotFound),
		errors.Is(err, inventoryservice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, taskservice.ErrInvalidTransition),
		errors.Is(err, inventoryservice.ErrInsufficientQuantity),
		errors.Is(err, inventoryservice.ErrToolAssigned),
		errors.Is(err, authservice.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, taskservice.ErrInvalidStatus),
		errors.Is(err, taskservice.ErrInvalidPart),
		errors.Is(err, taskservice.ErrUnknownBrigade),
		errors.Is(err, inventoryservice.ErrInvalidAmount),
		errors.Is(err, authservice.ErrInvalidUser):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, err error) {
	handleErrorCode(w, err, statusFor(err))
}

func handleErrorCode(w http.ResponseWriter, err error, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	e := Error{err.Error()}

	w.Write(e.ToJSON()) //nolint:errcheck
}
