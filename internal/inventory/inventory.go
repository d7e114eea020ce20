// Package inventory is the read side of the household data layer that the
// assistant's tools and heuristics query. Every read is scoped by household.
package inventory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by single-record lookups that match nothing.
var ErrNotFound = errors.New("inventory: not found")

// WorkspaceType classifies a household.
type WorkspaceType string

const (
	Personal WorkspaceType = "personal"
	Business WorkspaceType = "business"
)

// ParseWorkspaceType treats anything other than "business" as personal.
func ParseWorkspaceType(v string) WorkspaceType {
	if WorkspaceType(v) == Business {
		return Business
	}
	return Personal
}

type Item struct {
	ID          string     `json:"id" yaml:"id"`
	HouseholdID string     `json:"householdId" yaml:"householdId"`
	RoomID      *string    `json:"roomId,omitempty" yaml:"roomId"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Quantity    float64    `json:"quantity" yaml:"quantity"`
	Unit        string     `json:"unit" yaml:"unit"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty" yaml:"expiryDate"`
}

type Product struct {
	ID          string `json:"id" yaml:"id"`
	HouseholdID string `json:"householdId" yaml:"householdId"`
	Name        string `json:"name" yaml:"name"`
	SKU         string `json:"sku,omitempty" yaml:"sku"`
	Barcode     string `json:"barcode,omitempty" yaml:"barcode"`
	Description string `json:"description,omitempty" yaml:"description"`
	Unit        string `json:"unit" yaml:"unit"`
	Active      bool   `json:"active" yaml:"active"`
}

// StockRow is on-hand quantity of one product in one room.
type StockRow struct {
	ProductID string  `yaml:"productId"`
	RoomID    *string `yaml:"roomId"`
	Quantity  float64 `yaml:"quantity"`
}

// StockLevel is the aggregate on-hand quantity of an active product.
type StockLevel struct {
	Product  Product
	Quantity float64
}

type Movement struct {
	ID            string    `json:"id" yaml:"id"`
	ProductID     string    `json:"productId" yaml:"productId"`
	RoomID        *string   `json:"roomId,omitempty" yaml:"roomId"`
	Kind          string    `json:"kind" yaml:"kind"`
	QuantityDelta float64   `json:"quantityDelta" yaml:"quantityDelta"`
	Note          string    `json:"note,omitempty" yaml:"note"`
	CreatedAt     time.Time `json:"createdAt" yaml:"createdAt"`
}

// Store is the data-access contract. Implementations must never return rows
// from a household other than the one requested.
type Store interface {
	IsMember(ctx context.Context, userID, householdID string) (bool, error)
	WorkspaceType(ctx context.Context, householdID string) (WorkspaceType, error)

	SearchItems(ctx context.Context, householdID, query string, limit int) ([]Item, error)
	ListItems(ctx context.Context, householdID string) ([]Item, error)

	SearchProducts(ctx context.Context, householdID, query string, limit int) ([]Product, error)
	// ListProducts returns active products ordered by name.
	ListProducts(ctx context.Context, householdID string) ([]Product, error)
	GetProduct(ctx context.Context, householdID, productID string) (*Product, error)
	GetProductBySKU(ctx context.Context, householdID, sku string) (*Product, error)

	// SumStock totals stock rows for a product, restricted to roomID when non-nil.
	SumStock(ctx context.Context, householdID, productID string, roomID *string) (float64, error)
	// ListMovements returns movements newest first.
	ListMovements(ctx context.Context, householdID, productID string, limit int) ([]Movement, error)
	// ListStockLevels returns the aggregate quantity of every active product.
	ListStockLevels(ctx context.Context, householdID string) ([]StockLevel, error)
}
