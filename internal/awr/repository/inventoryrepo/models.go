package inventoryrepo

import "errors"

var (
	ErrNotFound             = errors.New("inventory item not found")
	ErrBrigadeNotFound      = errors.New("brigade not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrToolAssigned         = errors.New("tool is assigned to another brigade")
)
