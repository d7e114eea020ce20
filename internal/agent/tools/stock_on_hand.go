package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/agent/policy"
	"github.com/stockroom-app/server/internal/inventory"
)

type StockOnHandInput struct {
	ProductID string `json:"productId,omitempty"`
	SKU       string `json:"sku,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
}

var stockOnHandDef = toolDef{
	name: model.ToolGetStockOnHand,
	desc: "Get the current on-hand quantity of one product, summed across rooms or scoped to one room. " +
		"Pass productId when known, otherwise sku.",
	params: map[string]*schema.ParameterInfo{
		"productId": {
			Type: schema.String,
			Desc: "Product id from search_products results.",
		},
		"sku": {
			Type: schema.String,
			Desc: "Product SKU, used when productId is not known.",
		},
		"roomId": {
			Type: schema.String,
			Desc: "Optional room id to restrict the total to one room.",
		},
	},
}

func createStockOnHandTool(store inventory.Store) tool.InvokableTool {
	return utils.NewTool(
		stockOnHandDef.info(),
		func(ctx context.Context, in *StockOnHandInput) (*model.ToolResult, error) {
			householdID, err := householdFrom(ctx)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(in.ProductID) == "" && strings.TrimSpace(in.SKU) == "" {
				return missingArgument("productId or sku"), nil
			}

			p, err := resolveProduct(ctx, store, householdID, in.ProductID, in.SKU)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return notFound(map[string]any{"productId": in.ProductID, "sku": in.SKU}), nil
			}

			var roomID *string
			if r := strings.TrimSpace(in.RoomID); r != "" {
				roomID = &r
			}
			qty, err := store.SumStock(ctx, householdID, p.ID, roomID)
			if err != nil {
				return nil, err
			}

			return &model.ToolResult{
				ToolResponse: map[string]any{
					"found":    true,
					"product":  productRow(*p),
					"quantity": qty,
					"unit":     p.Unit,
					"roomId":   roomID,
				},
				Citations: []model.Citation{policy.ProductCitation(*p, qty, roomID)},
			}, nil
		},
	)
}

// resolveProduct looks a product up by id, then by SKU. A miss is (nil, nil).
func resolveProduct(ctx context.Context, store inventory.Store, householdID, productID, sku string) (*inventory.Product, error) {
	if id := strings.TrimSpace(productID); id != "" {
		p, err := store.GetProduct(ctx, householdID, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, inventory.ErrNotFound) {
			return nil, err
		}
	}
	if s := strings.TrimSpace(sku); s != "" {
		p, err := store.GetProductBySKU(ctx, householdID, s)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, inventory.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
