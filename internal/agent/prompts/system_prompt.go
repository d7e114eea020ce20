package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/inventory"
)

//go:embed template/system_prompt.txt
var systemPrompt string

const maxAnswerSentences = 3

// SystemVars are the per-request inputs to the system instruction.
type SystemVars struct {
	WorkspaceType inventory.WorkspaceType
	Now           time.Time
}

// RenderSystem renders the assistant system instruction through the eino
// prompt component so prompt callbacks observe it.
func RenderSystem(ctx context.Context, vars SystemVars, handlers ...einocb.Handler) (string, error) {
	if len(handlers) > 0 {
		ctx = einocb.InitCallbacks(ctx, &einocb.RunInfo{
			Name:      "assistant_system",
			Type:      "GoTemplate",
			Component: components.ComponentOfPrompt,
		}, handlers...)
	}

	workspace := vars.WorkspaceType
	if workspace == "" {
		workspace = inventory.Personal
	}
	now := vars.Now
	if now.IsZero() {
		now = time.Now()
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"WorkspaceType":       string(workspace),
		"Today":               now.UTC().Format("2006-01-02"),
		"SearchInventoryTool": model.ToolSearchInventory,
		"SearchProductsTool":  model.ToolSearchProducts,
		"StockOnHandTool":     model.ToolGetStockOnHand,
		"MovementsTool":       model.ToolGetMovements,
		"LowStockTool":        model.ToolGetLowStock,
		"MaxSentences":        maxAnswerSentences,
	})
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
