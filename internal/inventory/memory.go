package inventory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Household is a complete fixture for one household.
type Household struct {
	ID            string        `yaml:"id"`
	WorkspaceType WorkspaceType `yaml:"workspaceType"`
	Members       []string      `yaml:"members"`
	Items         []Item        `yaml:"items"`
	Products      []Product     `yaml:"products"`
	Stock         []StockRow    `yaml:"stock"`
	Movements     []Movement    `yaml:"movements"`
}

type fixtureFile struct {
	Households []Household `yaml:"households"`
}

// MemoryStore serves fixtures from memory with the same ordering and matching
// rules as PostgresStore. Used by the ask command and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	households map[string]*Household
}

func NewMemoryStore(households ...Household) *MemoryStore {
	s := &MemoryStore{households: make(map[string]*Household, len(households))}
	for i := range households {
		s.Put(households[i])
	}
	return s
}

// LoadFixtures reads a YAML fixture file.
func LoadFixtures(path string) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(raw)
}

func ParseFixtures(raw []byte) (*MemoryStore, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return NewMemoryStore(f.Households...), nil
}

// Put replaces a household fixture, stamping household ids onto its rows.
func (s *MemoryStore) Put(h Household) {
	if h.WorkspaceType == "" {
		h.WorkspaceType = Personal
	}
	for i := range h.Items {
		h.Items[i].HouseholdID = h.ID
	}
	for i := range h.Products {
		h.Products[i].HouseholdID = h.ID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.households[h.ID] = &h
}

func (s *MemoryStore) get(householdID string) *Household {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.households[householdID]
}

func (s *MemoryStore) IsMember(_ context.Context, userID, householdID string) (bool, error) {
	h := s.get(householdID)
	if h == nil {
		return false, nil
	}
	for _, m := range h.Members {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) WorkspaceType(_ context.Context, householdID string) (WorkspaceType, error) {
	h := s.get(householdID)
	if h == nil {
		return Personal, ErrNotFound
	}
	return ParseWorkspaceType(string(h.WorkspaceType)), nil
}

func (s *MemoryStore) SearchItems(ctx context.Context, householdID, query string, limit int) ([]Item, error) {
	items, _ := s.ListItems(ctx, householdID)
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Item
	for _, it := range items {
		if containsFold(it.Name, q) || containsFold(it.Description, q) {
			out = append(out, it)
		}
	}
	return capItems(out, limit), nil
}

func (s *MemoryStore) ListItems(_ context.Context, householdID string) ([]Item, error) {
	h := s.get(householdID)
	if h == nil {
		return nil, nil
	}
	out := append([]Item(nil), h.Items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) SearchProducts(ctx context.Context, householdID, query string, limit int) ([]Product, error) {
	products, _ := s.ListProducts(ctx, householdID)
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Product
	for _, p := range products {
		if containsFold(p.Name, q) || containsFold(p.SKU, q) || containsFold(p.Barcode, q) {
			out = append(out, p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListProducts(_ context.Context, householdID string) ([]Product, error) {
	h := s.get(householdID)
	if h == nil {
		return nil, nil
	}
	var out []Product
	for _, p := range h.Products {
		if p.Active {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

func (s *MemoryStore) GetProduct(_ context.Context, householdID, productID string) (*Product, error) {
	h := s.get(householdID)
	if h == nil {
		return nil, ErrNotFound
	}
	for _, p := range h.Products {
		if p.ID == productID {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetProductBySKU(_ context.Context, householdID, sku string) (*Product, error) {
	h := s.get(householdID)
	if h == nil {
		return nil, ErrNotFound
	}
	for _, p := range h.Products {
		if p.SKU != "" && strings.EqualFold(p.SKU, sku) {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SumStock(_ context.Context, householdID, productID string, roomID *string) (float64, error) {
	h := s.get(householdID)
	if h == nil {
		return 0, nil
	}
	var total float64
	for _, row := range h.Stock {
		if row.ProductID != productID {
			continue
		}
		if roomID != nil && (row.RoomID == nil || *row.RoomID != *roomID) {
			continue
		}
		total += row.Quantity
	}
	return total, nil
}

func (s *MemoryStore) ListMovements(_ context.Context, householdID, productID string, limit int) ([]Movement, error) {
	h := s.get(householdID)
	if h == nil {
		return nil, nil
	}
	var out []Movement
	for _, m := range h.Movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListStockLevels(ctx context.Context, householdID string) ([]StockLevel, error) {
	products, _ := s.ListProducts(ctx, householdID)
	out := make([]StockLevel, 0, len(products))
	for _, p := range products {
		qty, _ := s.SumStock(ctx, householdID, p.ID, nil)
		out = append(out, StockLevel{Product: p, Quantity: qty})
	}
	return out, nil
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

func capItems(items []Item, limit int) []Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func sortProducts(ps []Product) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Name != ps[j].Name {
			return ps[i].Name < ps[j].Name
		}
		return ps[i].ID < ps[j].ID
	})
}

var _ Store = (*MemoryStore)(nil)
