package tools

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/agent/policy"
	"github.com/stockroom-app/server/internal/inventory"
)

const (
	DefaultLowStockThreshold = 5.0
	maxLowStockLimit         = 10
)

type LowStockInput struct {
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

var lowStockDef = toolDef{
	name: model.ToolGetLowStock,
	desc: "List active products whose total on-hand quantity is at or below a threshold, lowest first.",
	params: map[string]*schema.ParameterInfo{
		"threshold": {
			Type: schema.Number,
			Desc: "Quantity at or below which a product counts as low stock (default 5).",
		},
		"limit": {
			Type: schema.Integer,
			Desc: "Maximum products to return (default 10, max 10).",
		},
	},
}

func createLowStockTool(store inventory.Store) tool.InvokableTool {
	return utils.NewTool(
		lowStockDef.info(),
		func(ctx context.Context, in *LowStockInput) (*model.ToolResult, error) {
			householdID, err := householdFrom(ctx)
			if err != nil {
				return nil, err
			}
			threshold := DefaultLowStockThreshold
			if in.Threshold != nil && *in.Threshold >= 0 {
				threshold = *in.Threshold
			}
			limit := maxLowStockLimit
			if in.Limit > 0 {
				limit = clampInt(in.Limit, 1, maxLowStockLimit)
			}

			levels, err := store.ListStockLevels(ctx, householdID)
			if err != nil {
				return nil, err
			}
			low := LowStock(levels, threshold, limit)

			rows := make([]map[string]any, 0, len(low))
			citations := make([]model.Citation, 0, len(low))
			for _, lvl := range low {
				citations = append(citations, policy.ProductCitation(lvl.Product, lvl.Quantity, nil))
				row := productRow(lvl.Product)
				row["quantity"] = lvl.Quantity
				rows = append(rows, row)
			}

			return &model.ToolResult{
				ToolResponse: map[string]any{
					"threshold": threshold,
					"found":     len(low) > 0,
					"products":  rows,
				},
				Citations: citations,
			}, nil
		},
	)
}

// LowStock filters levels at or below threshold, sorted ascending by quantity
// then name, capped at limit.
func LowStock(levels []inventory.StockLevel, threshold float64, limit int) []inventory.StockLevel {
	var out []inventory.StockLevel
	for _, lvl := range levels {
		if lvl.Quantity <= threshold {
			out = append(out, lvl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].Product.Name < out[j].Product.Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
