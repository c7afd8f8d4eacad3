package models

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCrew        Role = "crew"
	RoleStorekeeper Role = "storekeeper"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCrew, RoleStorekeeper:
		return true
	default:
		return false
	}
}

type User struct {
	ID           int    `json:"user_id"`     //nolint:tagliatelle
	TelegramID   int64  `json:"telegram_id"` //nolint:tagliatelle
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Name         string `json:"name"`
	BrigadeID    *int   `json:"brigade_id,omitempty"` //nolint:tagliatelle
}

// Actor - пользователь, от имени которого выполняется операция.
type Actor struct {
	UserID    int
	Role      Role
	BrigadeID *int
}

func (u User) Actor() Actor {
	return Actor{
		UserID:    u.ID,
		Role:      u.Role,
		BrigadeID: u.BrigadeID,
	}
}

// InBrigade сообщает, состоит ли пользователь в бригаде id.
func (a Actor) InBrigade(id *int) bool {
	return a.BrigadeID != nil && id != nil && *a.BrigadeID == *id
}
