package prompts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/server/internal/inventory"
)

func TestRenderSystem(t *testing.T) {
	out, err := RenderSystem(context.Background(), SystemVars{
		WorkspaceType: inventory.Business,
		Now:           time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, out, "business household inventory")
	assert.Contains(t, out, "Today is 2026-10-16.")
	for _, name := range []string{"search_inventory", "search_products", "get_stock_on_hand", "get_movements", "get_low_stock"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "{{")
}

func TestRenderSystemDefaultsToPersonal(t *testing.T) {
	out, err := RenderSystem(context.Background(), SystemVars{})
	require.NoError(t, err)
	assert.Contains(t, out, "personal household inventory")
}
