package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/stockroom-app/server/internal/agent/model"
	errx "github.com/stockroom-app/server/internal/core/error"
	"github.com/stockroom-app/server/internal/inventory"
	logx "github.com/stockroom-app/server/pkg/logger"
)

type householdKey struct{}

// WithHouseholdID scopes every tool call made with ctx to one household.
// Tools never take the household from model-supplied arguments.
func WithHouseholdID(ctx context.Context, householdID string) context.Context {
	return context.WithValue(ctx, householdKey{}, householdID)
}

func householdFrom(ctx context.Context) (string, error) {
	id, _ := ctx.Value(householdKey{}).(string)
	if id == "" {
		return "", errors.New("tool called without a household in context")
	}
	return id, nil
}

// toolDef describes one tool once; both the eino ToolInfo and the provider
// function declaration are derived from it.
type toolDef struct {
	name   model.ToolName
	desc   string
	params map[string]*schema.ParameterInfo
}

func (s toolDef) info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        string(s.name),
		Desc:        s.desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(s.params),
	}
}

// Registry is the fixed set of read-only tools keyed by the closed ToolName enum.
type Registry struct {
	tools    map[model.ToolName]tool.InvokableTool
	defs     []toolDef
	handlers []einocb.Handler
}

// NewRegistry wires the five tools to store. handlers observe every invocation.
func NewRegistry(store inventory.Store, handlers ...einocb.Handler) *Registry {
	r := &Registry{
		tools:    make(map[model.ToolName]tool.InvokableTool, len(model.ToolNames)),
		handlers: handlers,
	}
	r.register(searchInventoryDef, createSearchInventoryTool(store))
	r.register(searchProductsDef, createSearchProductsTool(store))
	r.register(stockOnHandDef, createStockOnHandTool(store))
	r.register(movementsDef, createMovementsTool(store))
	r.register(lowStockDef, createLowStockTool(store))
	return r
}

func (r *Registry) register(s toolDef, t tool.InvokableTool) {
	r.tools[s.name] = t
	r.defs = append(r.defs, s)
}

// Lookup resolves a provider-supplied name to a registered tool.
func (r *Registry) Lookup(name string) (model.ToolName, bool) {
	n, ok := model.ParseToolName(name)
	if !ok {
		return "", false
	}
	_, ok = r.tools[n]
	return n, ok
}

// Infos returns the eino tool descriptions in registration order.
func (r *Registry) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	out := make([]*schema.ToolInfo, 0, len(r.defs))
	for _, s := range r.defs {
		info, err := r.tools[s.name].Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info %s: %w", s.name, err)
		}
		out = append(out, info)
	}
	return out, nil
}

// Invoke runs a tool with provider arguments. Data-layer failures come back as
// fetch_failed; unresolvable targets are not errors.
func (r *Registry) Invoke(ctx context.Context, name model.ToolName, args map[string]any) (*model.ToolResult, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %q is not registered", name)
	}

	in, err := json.Marshal(sanitizeArgs(name, args))
	if err != nil {
		return nil, fmt.Errorf("marshal %s arguments: %w", name, err)
	}

	if len(r.handlers) > 0 {
		ctx = einocb.InitCallbacks(ctx, &einocb.RunInfo{
			Name:      string(name),
			Type:      "InvokableTool",
			Component: components.ComponentOfTool,
		}, r.handlers...)
		ctx = einocb.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: string(in)})
	}

	out, err := t.InvokableRun(ctx, string(in))
	if len(r.handlers) > 0 {
		if err != nil {
			einocb.OnError(ctx, err)
		} else {
			einocb.OnEnd(ctx, &tool.CallbackOutput{Response: out})
		}
	}
	if err != nil {
		logx.Error().Err(err).Str("tool", string(name)).Str("arguments", string(in)).Msg("tool execution failed")
		return nil, errx.WrapFetch(err, "failed to load inventory data")
	}

	var res model.ToolResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", name, err)
	}
	if res.ToolResponse == nil {
		res.ToolResponse = map[string]any{}
	}
	return &res, nil
}

// sanitizeArgs trims strings and coerces numeric fields so a loosely typed
// model call still decodes into the tool's input struct. Unknown keys are dropped.
func sanitizeArgs(name model.ToolName, args map[string]any) map[string]any {
	out := map[string]any{}
	str := func(key string) {
		v, ok := args[key]
		if !ok || v == nil {
			return
		}
		switch vv := v.(type) {
		case string:
			out[key] = strings.TrimSpace(vv)
		default:
			out[key] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	num := func(key string, integer bool) {
		v, ok := args[key]
		if !ok || v == nil {
			return
		}
		var f float64
		switch vv := v.(type) {
		case float64:
			f = vv
		case int:
			f = float64(vv)
		case int64:
			f = float64(vv)
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
			if err != nil {
				return
			}
			f = parsed
		default:
			return
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return
		}
		if integer {
			out[key] = int(math.Round(f))
			return
		}
		out[key] = f
	}

	switch name {
	case model.ToolSearchInventory, model.ToolSearchProducts:
		str("query")
	case model.ToolGetStockOnHand:
		str("productId")
		str("sku")
		str("roomId")
	case model.ToolGetMovements:
		str("productId")
		str("sku")
		num("limit", true)
	case model.ToolGetLowStock:
		num("threshold", false)
		num("limit", true)
	}
	return out
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
