package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/inventory"
)

const searchProductsLimit = 10

type SearchProductsInput struct {
	Query string `json:"query"`
}

var searchProductsDef = toolDef{
	name: model.ToolSearchProducts,
	desc: "Search business products by name, SKU or barcode. Returns product ids and SKUs only, no stock " +
		"quantities. Use it to find the productId or sku to pass to get_stock_on_hand or get_movements.",
	params: map[string]*schema.ParameterInfo{
		"query": {
			Type:     schema.String,
			Desc:     "Product name fragment, SKU or barcode.",
			Required: true,
		},
	},
}

// Search results are a disambiguation step, not evidence of a quantity, so
// this tool never produces citations.
func createSearchProductsTool(store inventory.Store) tool.InvokableTool {
	return utils.NewTool(
		searchProductsDef.info(),
		func(ctx context.Context, in *SearchProductsInput) (*model.ToolResult, error) {
			householdID, err := householdFrom(ctx)
			if err != nil {
				return nil, err
			}
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return missingArgument("query"), nil
			}

			products, err := store.SearchProducts(ctx, householdID, query, searchProductsLimit)
			if err != nil {
				return nil, err
			}

			rows := make([]map[string]any, 0, len(products))
			for _, p := range products {
				rows = append(rows, productRow(p))
			}

			return &model.ToolResult{
				ToolResponse: map[string]any{
					"query":    query,
					"found":    len(products) > 0,
					"products": rows,
					"total":    len(products),
				},
				LastQueryText: query,
			}, nil
		},
	)
}

func productRow(p inventory.Product) map[string]any {
	return map[string]any{
		"id":      p.ID,
		"name":    p.Name,
		"sku":     p.SKU,
		"barcode": p.Barcode,
		"unit":    p.Unit,
	}
}
