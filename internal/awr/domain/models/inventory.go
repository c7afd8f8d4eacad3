package models

type Unit string

const (
	UnitMeter    Unit = "м"
	UnitPiece    Unit = "шт"
	UnitKilogram Unit = "кг"
)

type Material struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Unit  Unit    `json:"unit"`
	Total float64 `json:"total"`
}

type Tool struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Serial     string `json:"serial"`
	AssignedTo *int   `json:"assigned_to"` //nolint:tagliatelle
}

type Holding struct {
	MaterialID string  `json:"material_id"` //nolint:tagliatelle
	Amount     float64 `json:"amount"`
}

type Brigade struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Materials []Holding `json:"materials"`
	Tools     []string  `json:"tools"`
}

type Inventory struct {
	Materials []Material `json:"materials"`
	Tools     []Tool     `json:"tools"`
}
