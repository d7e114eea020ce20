package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/agent/policy"
	"github.com/stockroom-app/server/internal/inventory"
)

const searchInventoryLimit = 5

type SearchInventoryInput struct {
	Query string `json:"query"`
}

var searchInventoryDef = toolDef{
	name: model.ToolSearchInventory,
	desc: "Search the household's items by keyword over item name and description. " +
		"Returns up to 5 matching items with quantity, unit, room and expiry date. " +
		"Use this for any question about whether the household has something.",
	params: map[string]*schema.ParameterInfo{
		"query": {
			Type:     schema.String,
			Desc:     "Keyword to search for, e.g. batteries, rice, passport.",
			Required: true,
		},
	},
}

func createSearchInventoryTool(store inventory.Store) tool.InvokableTool {
	return utils.NewTool(
		searchInventoryDef.info(),
		func(ctx context.Context, in *SearchInventoryInput) (*model.ToolResult, error) {
			householdID, err := householdFrom(ctx)
			if err != nil {
				return nil, err
			}
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return missingArgument("query"), nil
			}

			items, err := store.SearchItems(ctx, householdID, query, searchInventoryLimit)
			if err != nil {
				return nil, err
			}

			rows := make([]map[string]any, 0, len(items))
			citations := make([]model.Citation, 0, len(items))
			for _, it := range items {
				c := policy.ItemCitation(it)
				citations = append(citations, c)
				rows = append(rows, map[string]any{
					"id":          it.ID,
					"name":        it.Name,
					"description": it.Description,
					"quantity":    it.Quantity,
					"unit":        it.Unit,
					"roomId":      c.RoomID,
					"expiryDate":  c.ExpiryDate,
				})
			}

			return &model.ToolResult{
				ToolResponse: map[string]any{
					"query": query,
					"found": len(items) > 0,
					"items": rows,
				},
				Citations:     citations,
				LastQueryText: query,
			}, nil
		},
	)
}

func missingArgument(name string) *model.ToolResult {
	return &model.ToolResult{
		ToolResponse: map[string]any{
			"found": false,
			"error": name + " is required",
		},
	}
}

func notFound(fields map[string]any) *model.ToolResult {
	resp := map[string]any{"found": false}
	for k, v := range fields {
		if v != "" {
			resp[k] = v
		}
	}
	return &model.ToolResult{ToolResponse: resp}
}
