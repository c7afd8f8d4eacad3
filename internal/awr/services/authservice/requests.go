package authservice

import "github.com/Leopold1975/awr_control/internal/awr/domain/models"

type CreateUserRequest struct {
	TelegramID int64       `json:"telegram_id"` //nolint:tagliatelle
	Password   string      `json:"password"`
	Role       models.Role `json:"role"`
	Name       string      `json:"name"`
	BrigadeID  *int        `json:"brigade_id"` //nolint:tagliatelle
}

type LoginResponse struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
	User  models.User `json:"user"`
}
