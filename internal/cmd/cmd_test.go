package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/config"
	errx "github.com/stockroom-app/server/internal/core/error"
	logx "github.com/stockroom-app/server/pkg/logger"
)

var fixturePath = filepath.Join("..", "..", "testdata", "households.yaml")

const (
	homeID = "5b0c6d3e-8f35-4b8e-9d51-1f8f0a2c9e11"
	shopID = "9d3e7b21-54a8-4f0c-8e6b-1c2d3e4f5a6b"
)

func heuristicConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.False(t, cfg.Gemini.Configured())
	return cfg
}

func TestAskGroundedHit(t *testing.T) {
	logx.Disable()
	res, err := ask(context.Background(), heuristicConfig(t), askFlags{
		fixture:   fixturePath,
		question:  "Do I have batteries?",
		household: homeID,
		user:      "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "AA Batteries", res.Citations[0].Name)
}

func TestAskBusinessLowStock(t *testing.T) {
	logx.Disable()
	res, err := ask(context.Background(), heuristicConfig(t), askFlags{
		fixture:   fixturePath,
		question:  "What is low stock right now?",
		household: shopID,
		user:      "user-2",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "low stock")
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "product-1", res.Suggestions[0].TargetID)
}

func TestAskRejectsNonMember(t *testing.T) {
	logx.Disable()
	_, err := ask(context.Background(), heuristicConfig(t), askFlags{
		fixture:   fixturePath,
		question:  "Do I have batteries?",
		household: homeID,
		user:      "user-2",
	})
	assert.Equal(t, errx.ForbiddenHousehold, errx.CodeOf(err))
}

func TestAskMissingFixture(t *testing.T) {
	_, err := ask(context.Background(), heuristicConfig(t), askFlags{
		fixture:   filepath.Join(t.TempDir(), "nope.yaml"),
		question:  "hi",
		household: homeID,
		user:      "user-1",
	})
	assert.Error(t, err)
}

func TestAskCommandPrintsJSON(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"ask",
		"--fixture", fixturePath,
		"--household", homeID,
		"--user", "user-1",
		"--question", "Delete all expired items",
	})
	require.NoError(t, root.Execute())

	var res model.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, model.ConfidenceRefuse, res.Confidence)
	assert.Empty(t, res.Citations)
}

func TestAskCommandRequiresFlags(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ask", "--question", "hi"})
	assert.Error(t, root.Execute())
}
