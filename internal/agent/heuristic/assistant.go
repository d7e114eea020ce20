// Package heuristic answers inventory questions with fixed patterns and
// keyword matching, without calling a provider. Results use the same shapes as
// the provider-backed path.
package heuristic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/agent/policy"
	"github.com/stockroom-app/server/internal/agent/tools"
	errx "github.com/stockroom-app/server/internal/core/error"
	"github.com/stockroom-app/server/internal/inventory"
)

const (
	maxMatches      = 5
	maxLowStockRows = 10
	overviewTopN    = 3
)

const (
	addProductsAnswer    = "Your business workspace has no active products yet, so there is no stock to report."
	addProductsQuestion  = "Would you like to add products or import them from a CSV first?"
	emptyHouseholdAnswer = "There are no items recorded in this household yet."
	addItemsQuestion     = "Would you like to add your first item?"
)

type Options struct {
	Store  inventory.Store
	Config model.HeuristicConfig
	Now    func() time.Time
}

// Assistant is the deterministic, provider-free answerer.
type Assistant struct {
	store inventory.Store
	cfg   model.HeuristicConfig
	rules policy.SuggestionRules
}

func NewAssistant(opts Options) *Assistant {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Config
	if cfg.ExpiryWindowDays <= 0 {
		cfg.ExpiryWindowDays = 7
	}
	return &Assistant{
		store: opts.Store,
		cfg:   cfg,
		rules: policy.SuggestionRules{
			ItemLowStock:    cfg.PersonalLowStockThreshold,
			ProductLowStock: cfg.BusinessLowStockThreshold,
			ExpiryWindow:    time.Duration(cfg.ExpiryWindowDays) * 24 * time.Hour,
			Now:             now,
		},
	}
}

// Answer never returns (nil, nil).
func (a *Assistant) Answer(ctx context.Context, q model.Question) (*model.Result, error) {
	normalized := policy.NormalizeQuestion(q.Text)
	if policy.ShouldRefuse(normalized) {
		return policy.Refusal(), nil
	}

	wt, err := a.store.WorkspaceType(ctx, q.HouseholdID)
	if err != nil && !errors.Is(err, inventory.ErrNotFound) {
		return nil, errx.WrapFetch(err, "failed to load household")
	}
	business := wt == inventory.Business

	var products []inventory.Product
	if business {
		products, err = a.store.ListProducts(ctx, q.HouseholdID)
		if err != nil {
			return nil, errx.WrapFetch(err, "failed to load products")
		}
		if len(products) == 0 {
			return policy.Low(addProductsAnswer, addProductsQuestion), nil
		}
	}

	items, err := a.store.ListItems(ctx, q.HouseholdID)
	if err != nil {
		return nil, errx.WrapFetch(err, "failed to load items")
	}
	words := keywords(normalized)

	switch classify(normalized, business) {
	case intentLowStock:
		if business {
			return a.businessLowStock(ctx, q.HouseholdID)
		}
		return a.personalLowStock(items), nil
	case intentStock:
		res, err := a.businessStock(ctx, q.HouseholdID, products, words)
		if err != nil || res != nil {
			return res, err
		}
	case intentExpiry:
		return a.expiring(items), nil
	case intentOverview:
		return a.overview(items, products), nil
	}

	return a.keywordMatch(ctx, q.HouseholdID, items, products, words)
}

func (a *Assistant) businessLowStock(ctx context.Context, householdID string) (*model.Result, error) {
	levels, err := a.store.ListStockLevels(ctx, householdID)
	if err != nil {
		return nil, errx.WrapFetch(err, "failed to load stock levels")
	}
	threshold := a.cfg.BusinessLowStockThreshold
	low := tools.LowStock(levels, threshold, maxLowStockRows)
	if len(low) == 0 {
		return policy.Medium(fmt.Sprintf(
			"No products are at or below the low stock threshold of %s right now.", formatNumber(threshold)), nil), nil
	}

	citations := make([]model.Citation, 0, len(low))
	for _, lvl := range low {
		citations = append(citations, policy.ProductCitation(lvl.Product, lvl.Quantity, nil))
	}
	answer := fmt.Sprintf("%s at or below the low stock threshold of %s: %s.",
		countNoun(len(citations), "product is", "products are"), formatNumber(threshold), listCitations(citations))
	return policy.Grounded(answer, citations, a.rules.Build(citations)), nil
}

// businessStock returns nil when no product matches so the caller can fall
// back to keyword matching over items.
func (a *Assistant) businessStock(ctx context.Context, householdID string, products []inventory.Product, words []string) (*model.Result, error) {
	type hit struct {
		p     inventory.Product
		score int
	}
	var hits []hit
	for _, p := range products {
		if s := score(words, p.Name, p.SKU, p.Barcode, p.Description); s > 0 {
			hits = append(hits, hit{p, s})
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].p.Name < hits[j].p.Name
	})
	if len(hits) > maxMatches {
		hits = hits[:maxMatches]
	}

	citations := make([]model.Citation, 0, len(hits))
	for _, h := range hits {
		qty, err := a.store.SumStock(ctx, householdID, h.p.ID, nil)
		if err != nil {
			return nil, errx.WrapFetch(err, "failed to load stock")
		}
		citations = append(citations, policy.ProductCitation(h.p, qty, nil))
	}
	answer := fmt.Sprintf("Current stock on hand: %s.", listCitations(citations))
	return policy.Grounded(answer, citations, a.rules.Build(citations)), nil
}

func (a *Assistant) personalLowStock(items []inventory.Item) *model.Result {
	threshold := a.cfg.PersonalLowStockThreshold
	var low []inventory.Item
	for _, it := range items {
		if it.Quantity <= threshold {
			low = append(low, it)
		}
	}
	if len(low) == 0 {
		unit := formatNumber(threshold) + " units"
		if threshold == 1 {
			unit = "1 unit"
		}
		return policy.Medium(fmt.Sprintf("Nothing is running low: no items are at or below %s.", unit), nil)
	}
	sort.SliceStable(low, func(i, j int) bool {
		if low[i].Quantity != low[j].Quantity {
			return low[i].Quantity < low[j].Quantity
		}
		return low[i].Name < low[j].Name
	})
	if len(low) > maxLowStockRows {
		low = low[:maxLowStockRows]
	}
	citations := itemCitations(low)
	answer := fmt.Sprintf("%s running low: %s.", countNoun(len(citations), "item is", "items are"), listCitations(citations))
	return policy.Grounded(answer, citations, a.rules.Build(citations))
}

func (a *Assistant) expiring(items []inventory.Item) *model.Result {
	today := truncateDay(a.rules.Now())
	cutoff := today.AddDate(0, 0, a.cfg.ExpiryWindowDays)
	var soon []inventory.Item
	for _, it := range items {
		if it.ExpiryDate != nil && !it.ExpiryDate.After(cutoff) {
			soon = append(soon, it)
		}
	}
	if len(soon) == 0 {
		return policy.Medium(fmt.Sprintf("No items are expiring in the next %d days.", a.cfg.ExpiryWindowDays), nil)
	}
	sort.SliceStable(soon, func(i, j int) bool {
		if !soon[i].ExpiryDate.Equal(*soon[j].ExpiryDate) {
			return soon[i].ExpiryDate.Before(*soon[j].ExpiryDate)
		}
		return soon[i].Name < soon[j].Name
	})
	if len(soon) > maxLowStockRows {
		soon = soon[:maxLowStockRows]
	}

	citations := itemCitations(soon)
	parts := make([]string, 0, len(citations))
	for _, c := range citations {
		verb := "expires"
		if exp, err := time.Parse("2006-01-02", *c.ExpiryDate); err == nil && exp.Before(today) {
			verb = "expired"
		}
		parts = append(parts, fmt.Sprintf("%s (%s %s)", c.Name, verb, *c.ExpiryDate))
	}
	answer := fmt.Sprintf("%s expired or expiring within %d days: %s.",
		countNoun(len(citations), "item is", "items are"), a.cfg.ExpiryWindowDays, strings.Join(parts, ", "))
	return policy.Grounded(answer, citations, a.rules.Build(citations))
}

func (a *Assistant) overview(items []inventory.Item, products []inventory.Product) *model.Result {
	if len(items) == 0 && len(products) == 0 {
		return policy.Low(emptyHouseholdAnswer, addItemsQuestion)
	}
	if len(items) == 0 {
		return policy.Medium(fmt.Sprintf("This workspace has %s and no household items recorded.",
			countNoun(len(products), "active product", "active products")), nil)
	}

	rooms := map[string]bool{}
	for _, it := range items {
		if it.RoomID != nil {
			rooms[*it.RoomID] = true
		}
	}
	top := append([]inventory.Item(nil), items...)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > overviewTopN {
		top = top[:overviewTopN]
	}
	citations := itemCitations(top)

	answer := fmt.Sprintf("You have %s recorded", countNoun(len(items), "item", "items"))
	if len(rooms) > 0 {
		answer += fmt.Sprintf(" across %s", countNoun(len(rooms), "room", "rooms"))
	}
	if len(products) > 0 {
		answer += fmt.Sprintf(" and %s", countNoun(len(products), "active product", "active products"))
	}
	answer += fmt.Sprintf(". Largest quantities: %s.", listCitations(citations))
	return policy.Medium(answer, citations)
}

func (a *Assistant) keywordMatch(ctx context.Context, householdID string, items []inventory.Item, products []inventory.Product, words []string) (*model.Result, error) {
	if len(words) == 0 {
		return policy.NoMatch(""), nil
	}

	type hit struct {
		c     model.Citation
		score int
	}
	var hits []hit
	for _, it := range items {
		if s := score(words, it.Name, it.Description); s > 0 {
			hits = append(hits, hit{policy.ItemCitation(it), s})
		}
	}
	for _, p := range products {
		if s := score(words, p.Name, p.SKU, p.Barcode, p.Description); s > 0 {
			qty, err := a.store.SumStock(ctx, householdID, p.ID, nil)
			if err != nil {
				return nil, errx.WrapFetch(err, "failed to load stock")
			}
			hits = append(hits, hit{policy.ProductCitation(p, qty, nil), s})
		}
	}
	if len(hits) == 0 {
		return policy.NoMatch(strings.Join(words, " ")), nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].c.Name != hits[j].c.Name {
			return hits[i].c.Name < hits[j].c.Name
		}
		return hits[i].c.ID < hits[j].c.ID
	})
	if len(hits) > maxMatches {
		hits = hits[:maxMatches]
	}
	citations := make([]model.Citation, 0, len(hits))
	for _, h := range hits {
		citations = append(citations, h.c)
	}

	var answer string
	if len(citations) == 1 {
		answer = fmt.Sprintf("Yes, you have %s: %s.", citations[0].Name, policy.FormatQuantity(citations[0]))
	} else {
		answer = fmt.Sprintf("I found %d matching records: %s.", len(citations), listCitations(citations))
	}
	return policy.Grounded(answer, citations, a.rules.Build(citations)), nil
}

func itemCitations(items []inventory.Item) []model.Citation {
	out := make([]model.Citation, 0, len(items))
	for _, it := range items {
		out = append(out, policy.ItemCitation(it))
	}
	return out
}

func listCitations(cs []model.Citation) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Name, policy.FormatQuantity(c)))
	}
	return strings.Join(parts, ", ")
}

func countNoun(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func formatNumber(f float64) string {
	return policy.FormatQuantity(model.Citation{Quantity: f})
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
