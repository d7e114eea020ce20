package model

// ToolName is the closed set of tools the provider may call.
type ToolName string

const (
	ToolSearchInventory ToolName = "search_inventory"
	ToolSearchProducts  ToolName = "search_products"
	ToolGetStockOnHand  ToolName = "get_stock_on_hand"
	ToolGetMovements    ToolName = "get_movements"
	ToolGetLowStock     ToolName = "get_low_stock"
)

// ToolNames lists every tool in declaration order.
var ToolNames = []ToolName{
	ToolSearchInventory,
	ToolSearchProducts,
	ToolGetStockOnHand,
	ToolGetMovements,
	ToolGetLowStock,
}

// ParseToolName reports whether name is one of the registered tools.
func ParseToolName(name string) (ToolName, bool) {
	for _, n := range ToolNames {
		if string(n) == name {
			return n, true
		}
	}
	return "", false
}

// ToolResult is what every tool handler returns. ToolResponse is passed back
// to the provider verbatim; Citations are the grounded facts it produced.
type ToolResult struct {
	ToolResponse  map[string]any `json:"toolResponse"`
	Citations     []Citation     `json:"citations,omitempty"`
	LastQueryText string         `json:"lastQueryText,omitempty"`
}
