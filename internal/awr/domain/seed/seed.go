// Package seed содержит начальное состояние хранилища: пользователей, бригады,
// материалы, инструмент и одну задачу.
package seed

import (
	"fmt"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
)

const (
	BrigadeCount    = 10
	InitialQuantity = 100
)

// User - пользователь с паролем в открытом виде, хэшируется при загрузке.
type User struct {
	models.User
	Password string
}

type Data struct {
	Users     []User
	Brigades  []models.Brigade
	Materials []models.Material
	Tools     []models.Tool
	Tasks     []models.Task
}

func intPtr(v int) *int {
	return &v
}

// Default возвращает стартовые данные. Каждый вызов отдаёт независимую копию.
func Default() Data {
	brigades := make([]models.Brigade, 0, BrigadeCount)
	for i := 1; i <= BrigadeCount; i++ {
		brigades = append(brigades, models.Brigade{
			ID:   i,
			Name: fmt.Sprintf("Бригада %d", i),
		})
	}

	return Data{
		Users: []User{
			{User: models.User{ID: 1, TelegramID: 111, Role: models.RoleAdmin, Name: "Admin 1"}, Password: "adminpass"},
			{
				User:     models.User{ID: 2, TelegramID: 222, Role: models.RoleCrew, Name: "Бригада 1", BrigadeID: intPtr(1)},
				Password: "brig1pass",
			},
			{User: models.User{ID: 3, TelegramID: 333, Role: models.RoleStorekeeper, Name: "Кладовщик"}, Password: "kladpass"},
		},
		Brigades: brigades,
		Materials: []models.Material{
			{ID: "c_vok_4", Name: "Кабель ВОК 4", Unit: models.UnitMeter, Total: InitialQuantity},
			{ID: "c_vok_8", Name: "Кабель ВОК 8", Unit: models.UnitMeter, Total: InitialQuantity},
			{ID: "c_vok_12", Name: "Кабель ВОК 12", Unit: models.UnitMeter, Total: InitialQuantity},
			{ID: "bo16", Name: "БО/16", Unit: models.UnitPiece, Total: InitialQuantity},
			{ID: "mufta_sq", Name: "Муфта (квадрат)", Unit: models.UnitPiece, Total: InitialQuantity},
			{ID: "gofra", Name: "Гофра", Unit: models.UnitMeter, Total: InitialQuantity},
			{ID: "shpak", Name: "Шпаклёвка", Unit: models.UnitKilogram, Total: InitialQuantity},
			{ID: "patch", Name: "Патчкорд", Unit: models.UnitPiece, Total: InitialQuantity},
		},
		Tools: []models.Tool{
			{ID: "t1", Name: "перфоратор проводной", Serial: "SR-1001"},
			{ID: "t2", Name: "перфоратор беспроводной", Serial: "SR-1002", AssignedTo: intPtr(1)},
		},
		Tasks: []models.Task{
			{
				ID:          1,
				Address:     "ул. Ленина, 10",
				Description: "Прокладка кабеля",
				Access:      "с 9 до 18",
				BrigadeID:   intPtr(1),
				Status:      models.StatusNew,
				CreatedBy:   1,
				CreatedAt:   time.Now(),
			},
		},
	}
}
