package tools

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/agent/policy"
	"github.com/stockroom-app/server/internal/inventory"
)

const (
	defaultMovementsLimit = 10
	maxMovementsLimit     = 25
)

type MovementsInput struct {
	ProductID string `json:"productId,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

var movementsDef = toolDef{
	name: model.ToolGetMovements,
	desc: "List recent stock ledger movements (receipts, sales, adjustments, transfers) for one product, " +
		"newest first. Pass productId when known, otherwise sku. The citation carries the product's " +
		"current on-hand quantity, not a movement amount.",
	params: map[string]*schema.ParameterInfo{
		"productId": {
			Type: schema.String,
			Desc: "Product id from search_products results.",
		},
		"sku": {
			Type: schema.String,
			Desc: "Product SKU, used when productId is not known.",
		},
		"limit": {
			Type: schema.Integer,
			Desc: "Maximum movements to return (default 10, max 25).",
		},
	},
}

func createMovementsTool(store inventory.Store) tool.InvokableTool {
	return utils.NewTool(
		movementsDef.info(),
		func(ctx context.Context, in *MovementsInput) (*model.ToolResult, error) {
			householdID, err := householdFrom(ctx)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(in.ProductID) == "" && strings.TrimSpace(in.SKU) == "" {
				return missingArgument("productId or sku"), nil
			}
			limit := defaultMovementsLimit
			if in.Limit > 0 {
				limit = clampInt(in.Limit, 1, maxMovementsLimit)
			}

			p, err := resolveProduct(ctx, store, householdID, in.ProductID, in.SKU)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return notFound(map[string]any{"productId": in.ProductID, "sku": in.SKU}), nil
			}

			moves, err := store.ListMovements(ctx, householdID, p.ID, limit)
			if err != nil {
				return nil, err
			}
			qty, err := store.SumStock(ctx, householdID, p.ID, nil)
			if err != nil {
				return nil, err
			}

			rows := make([]map[string]any, 0, len(moves))
			for _, m := range moves {
				rows = append(rows, map[string]any{
					"id":            m.ID,
					"kind":          m.Kind,
					"quantityDelta": m.QuantityDelta,
					"roomId":        m.RoomID,
					"note":          m.Note,
					"createdAt":     m.CreatedAt.UTC().Format(time.RFC3339),
				})
			}

			return &model.ToolResult{
				ToolResponse: map[string]any{
					"found":      true,
					"product":    productRow(*p),
					"onHand":     qty,
					"movements":  rows,
					"totalShown": len(rows),
				},
				Citations: []model.Citation{policy.ProductCitation(*p, qty, nil)},
			}, nil
		},
	)
}
