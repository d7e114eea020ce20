package policy

import (
	"fmt"
	"strconv"
	"time"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/inventory"
)

const dateLayout = "2006-01-02"

// ItemCitation maps an inventory item to a citation.
func ItemCitation(it inventory.Item) model.Citation {
	c := model.Citation{
		EntityType: model.EntityItem,
		ID:         it.ID,
		Name:       it.Name,
		Quantity:   it.Quantity,
		Unit:       it.Unit,
		RoomID:     it.RoomID,
	}
	if it.ExpiryDate != nil {
		d := it.ExpiryDate.Format(dateLayout)
		c.ExpiryDate = &d
	}
	return c
}

// ProductCitation maps a product and an aggregate on-hand quantity to a
// citation. roomID is set only when the quantity is room-scoped.
func ProductCitation(p inventory.Product, quantity float64, roomID *string) model.Citation {
	return model.Citation{
		EntityType: model.EntityProduct,
		ID:         p.ID,
		Name:       p.Name,
		Quantity:   quantity,
		Unit:       p.Unit,
		RoomID:     roomID,
	}
}

// FormatQuantity renders "2 pack" / "1.5 kg" without trailing zeros.
func FormatQuantity(c model.Citation) string {
	q := strconv.FormatFloat(c.Quantity, 'f', -1, 64)
	if c.Unit == "" {
		return q
	}
	return q + " " + c.Unit
}

// SuggestionRules derives display-only suggestions from citations.
type SuggestionRules struct {
	ItemLowStock    float64
	ProductLowStock float64
	ExpiryWindow    time.Duration
	Now             func() time.Time
}

// DefaultSuggestionRules mirrors the heuristic defaults.
func DefaultSuggestionRules() SuggestionRules {
	return SuggestionRules{
		ItemLowStock:    1,
		ProductLowStock: 5,
		ExpiryWindow:    7 * 24 * time.Hour,
		Now:             time.Now,
	}
}

func (r SuggestionRules) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Build returns at most one suggestion per cited entity, in citation order.
// Expiry reminders win over restock for items.
func (r SuggestionRules) Build(citations []model.Citation) []model.Suggestion {
	out := []model.Suggestion{}
	today := truncateDay(r.now())
	for _, c := range citations {
		if c.ExpiryDate != nil {
			if exp, err := time.Parse(dateLayout, *c.ExpiryDate); err == nil && !exp.After(today.Add(r.ExpiryWindow)) {
				out = append(out, model.Suggestion{
					Type:     model.SuggestReminder,
					TargetID: c.ID,
					Reason:   expiryReason(c.Name, exp, today),
				})
				continue
			}
		}
		threshold := r.ItemLowStock
		if c.EntityType == model.EntityProduct {
			threshold = r.ProductLowStock
		}
		if c.Quantity <= threshold {
			out = append(out, model.Suggestion{
				Type:     model.SuggestRestock,
				TargetID: c.ID,
				Reason:   fmt.Sprintf("%s is low (%s on hand).", c.Name, FormatQuantity(c)),
			})
		}
	}
	return out
}

func expiryReason(name string, exp, today time.Time) string {
	if exp.Before(today) {
		return fmt.Sprintf("%s expired on %s.", name, exp.Format(dateLayout))
	}
	return fmt.Sprintf("%s expires on %s.", name, exp.Format(dateLayout))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
