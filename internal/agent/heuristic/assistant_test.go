package heuristic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/server/internal/agent/model"
	errx "github.com/stockroom-app/server/internal/core/error"
	"github.com/stockroom-app/server/internal/inventory"
)

var today = time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)

func day(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func ptr[T any](v T) *T { return &v }

func newAssistant(store inventory.Store) *Assistant {
	return NewAssistant(Options{
		Store: store,
		Config: model.HeuristicConfig{
			PersonalLowStockThreshold: 1,
			BusinessLowStockThreshold: 5,
			ExpiryWindowDays:          7,
		},
		Now: func() time.Time { return today },
	})
}

func ask(t *testing.T, store inventory.Store, household, text string) *model.Result {
	t.Helper()
	res, err := newAssistant(store).Answer(context.Background(), model.Question{Text: text, HouseholdID: household, UserID: "user-1"})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func personalStore() *inventory.MemoryStore {
	return inventory.NewMemoryStore(inventory.Household{
		ID:      "home",
		Members: []string{"user-1"},
		Items: []inventory.Item{
			{ID: "item-1", Name: "AA Batteries", Quantity: 2, Unit: "pack", RoomID: ptr("garage")},
			{ID: "item-2", Name: "Milk", Description: "oat, unsweetened", Quantity: 1, Unit: "carton", RoomID: ptr("kitchen"), ExpiryDate: day("2026-10-18")},
			{ID: "item-3", Name: "Yogurt", Quantity: 4, Unit: "cup", RoomID: ptr("kitchen"), ExpiryDate: day("2026-10-10")},
			{ID: "item-4", Name: "Rice", Quantity: 5, Unit: "kg", RoomID: ptr("pantry"), ExpiryDate: day("2027-06-01")},
		},
	})
}

func businessStore() *inventory.MemoryStore {
	return inventory.NewMemoryStore(inventory.Household{
		ID:            "shop",
		WorkspaceType: inventory.Business,
		Members:       []string{"user-1"},
		Products: []inventory.Product{
			{ID: "product-1", Name: "Almond Milk", SKU: "ALM-1", Unit: "carton", Active: true},
			{ID: "product-2", Name: "Espresso Beans", SKU: "ESP-1", Unit: "bag", Active: true},
		},
		Stock: []inventory.StockRow{
			{ProductID: "product-1", RoomID: ptr("front"), Quantity: 1},
			{ProductID: "product-2", RoomID: ptr("front"), Quantity: 12},
			{ProductID: "product-2", RoomID: ptr("back"), Quantity: 6},
		},
	})
}

func TestGroundedHit(t *testing.T) {
	res := ask(t, personalStore(), "home", "Do I have batteries?")

	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	assert.Contains(t, res.Answer, "AA Batteries")
	require.Len(t, res.Citations, 1)
	c := res.Citations[0]
	assert.Equal(t, "AA Batteries", c.Name)
	assert.Equal(t, 2.0, c.Quantity)
	assert.Equal(t, "pack", c.Unit)
	assert.Equal(t, model.EntityItem, c.EntityType)
}

func TestNoMatch(t *testing.T) {
	store := inventory.NewMemoryStore(inventory.Household{
		ID:    "home",
		Items: []inventory.Item{{ID: "item-1", Name: "Sea Salt", Quantity: 1, Unit: "jar"}},
	})
	res := ask(t, store, "home", "Do I have toothbrushes?")

	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	assert.Empty(t, res.Citations)
	require.NotNil(t, res.ClarifyingQuestion)
	assert.Contains(t, res.Answer, "toothbrushes")
}

func TestKeywordsMatchWholeWords(t *testing.T) {
	store := inventory.NewMemoryStore(inventory.Household{
		ID: "home",
		Items: []inventory.Item{
			{ID: "item-1", Name: "Ribeye Steak", Quantity: 2, Unit: "pack"},
			{ID: "item-2", Name: "Black Pepper", Description: "open jar", Quantity: 1, Unit: "jar"},
			{ID: "item-3", Name: "Oat Milk", Quantity: 1, Unit: "carton"},
		},
	})
	for _, q := range []string{"Do I have tea?", "Do I have a pen?", "Where is the car?"} {
		res := ask(t, store, "home", q)
		assert.Equal(t, model.ConfidenceLow, res.Confidence, q)
		assert.Empty(t, res.Citations, q)
		assert.NotNil(t, res.ClarifyingQuestion, q)
	}

	res := ask(t, store, "home", "Do I have steaks?")
	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "Ribeye Steak", res.Citations[0].Name)
}

func TestBusinessLowStock(t *testing.T) {
	res := ask(t, businessStore(), "shop", "What is low stock right now?")

	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	assert.Contains(t, res.Answer, "low stock")
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "Almond Milk", res.Citations[0].Name)
	assert.Equal(t, model.EntityProduct, res.Citations[0].EntityType)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, model.SuggestRestock, res.Suggestions[0].Type)
	assert.Equal(t, "product-1", res.Suggestions[0].TargetID)
}

func TestBusinessNothingLow(t *testing.T) {
	store := businessStore()
	store.Put(inventory.Household{
		ID:            "shop",
		WorkspaceType: inventory.Business,
		Products:      []inventory.Product{{ID: "product-2", Name: "Espresso Beans", Unit: "bag", Active: true}},
		Stock:         []inventory.StockRow{{ProductID: "product-2", Quantity: 40}},
	})
	res := ask(t, store, "shop", "Anything running low?")
	assert.Equal(t, model.ConfidenceMedium, res.Confidence)
	assert.Empty(t, res.Citations)
}

func TestRefusal(t *testing.T) {
	res := ask(t, personalStore(), "home", "Delete all expired items and order more batteries")

	assert.Equal(t, model.ConfidenceRefuse, res.Confidence)
	assert.Empty(t, res.Citations)
	assert.Empty(t, res.Suggestions)
	assert.Contains(t, res.Answer, "can't delete")
}

func TestBusinessWithoutProductsAsksToAddData(t *testing.T) {
	store := inventory.NewMemoryStore(inventory.Household{
		ID:            "shop",
		WorkspaceType: inventory.Business,
		Products:      []inventory.Product{{ID: "old", Name: "Retired", Active: false}},
	})
	res := ask(t, store, "shop", "What is low stock right now?")

	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	require.NotNil(t, res.ClarifyingQuestion)
	assert.Contains(t, *res.ClarifyingQuestion, "add products")
}

func TestBusinessStockQuestion(t *testing.T) {
	res := ask(t, businessStore(), "shop", "How many espresso beans are on hand?")

	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "product-2", res.Citations[0].ID)
	assert.Equal(t, 18.0, res.Citations[0].Quantity)
	assert.Contains(t, res.Answer, "Espresso Beans (18 bag)")
	assert.Empty(t, res.Suggestions)
}

func TestExpiring(t *testing.T) {
	res := ask(t, personalStore(), "home", "What is expiring soon?")

	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	require.Len(t, res.Citations, 2)
	assert.Equal(t, "Yogurt", res.Citations[0].Name)
	assert.Equal(t, "Milk", res.Citations[1].Name)
	assert.Contains(t, res.Answer, "Yogurt (expired 2026-10-10)")
	assert.Contains(t, res.Answer, "Milk (expires 2026-10-18)")

	require.Len(t, res.Suggestions, 2)
	for _, s := range res.Suggestions {
		assert.Equal(t, model.SuggestReminder, s.Type)
	}
}

func TestNothingExpiringIsMedium(t *testing.T) {
	store := inventory.NewMemoryStore(inventory.Household{
		ID:    "home",
		Items: []inventory.Item{{ID: "item-4", Name: "Rice", Quantity: 5, Unit: "kg", ExpiryDate: day("2027-06-01")}},
	})
	res := ask(t, store, "home", "Anything about to expire?")
	assert.Equal(t, model.ConfidenceMedium, res.Confidence)
	assert.Nil(t, res.ClarifyingQuestion)
}

func TestOverview(t *testing.T) {
	res := ask(t, personalStore(), "home", "Give me an overview")

	assert.Equal(t, model.ConfidenceMedium, res.Confidence)
	assert.Contains(t, res.Answer, "4 items")
	assert.Contains(t, res.Answer, "3 rooms")
	require.Len(t, res.Citations, 3)
	assert.Equal(t, "Rice", res.Citations[0].Name)

	empty := inventory.NewMemoryStore(inventory.Household{ID: "home"})
	res = ask(t, empty, "home", "Give me an overview")
	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	assert.NotNil(t, res.ClarifyingQuestion)
}

func TestPersonalLowStockUsesPersonalThreshold(t *testing.T) {
	res := ask(t, personalStore(), "home", "What am I running low on?")

	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "Milk", res.Citations[0].Name)
}

func TestIdempotent(t *testing.T) {
	store := personalStore()
	questions := []string{
		"Do I have batteries?",
		"What is expiring soon?",
		"Give me an overview",
		"Where is the rice?",
		"Do I have toothbrushes?",
	}
	for _, q := range questions {
		first := ask(t, store, "home", q)
		second := ask(t, store, "home", q)
		assert.Equal(t, first, second, q)
	}
}

func TestLowNeverWithoutClarifyingAndHighNeverWithoutCitations(t *testing.T) {
	questions := []string{"", "?", "hello", "batteries", "what is low stock", "overview", "expired"}
	for _, store := range []*inventory.MemoryStore{personalStore(), businessStore(), inventory.NewMemoryStore()} {
		for _, household := range []string{"home", "shop", "missing"} {
			for _, q := range questions {
				res, err := newAssistant(store).Answer(context.Background(), model.Question{Text: q, HouseholdID: household})
				require.NoError(t, err)
				if res.Confidence == model.ConfidenceHigh {
					assert.NotEmpty(t, res.Citations, q)
				}
				if res.Confidence == model.ConfidenceLow {
					assert.NotNil(t, res.ClarifyingQuestion, q)
				}
			}
		}
	}
}

type failingStore struct {
	*inventory.MemoryStore
}

func (failingStore) ListItems(context.Context, string) ([]inventory.Item, error) {
	return nil, errors.New("timeout")
}

func TestDataFailure(t *testing.T) {
	_, err := newAssistant(failingStore{personalStore()}).Answer(context.Background(), model.Question{Text: "batteries?", HouseholdID: "home"})
	require.Error(t, err)
	assert.Equal(t, errx.FetchFailed, errx.CodeOf(err))
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"batteries"}, keywords("do i have batteries?"))
	assert.Equal(t, []string{"kids", "toothbrushes"}, keywords("where are the kids' toothbrushes"))
	assert.Contains(t, variants("batteries"), "battery")
	assert.Contains(t, variants("toothbrushes"), "toothbrush")

	assert.True(t, matchesAny(variants("battery"), []string{"AA Batteries"}))
	assert.True(t, matchesAny(variants("milk"), []string{"oat-milk"}))
	assert.False(t, matchesAny(variants("tea"), []string{"Ribeye Steak"}))
	assert.False(t, matchesAny(variants("car"), []string{"Carton"}))
}
