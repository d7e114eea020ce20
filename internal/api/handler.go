package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stockroom-app/server/internal/agent/model"
	errx "github.com/stockroom-app/server/internal/core/error"
)

// Asker is the assistant pipeline as seen by the transport.
type Asker interface {
	Ask(ctx context.Context, q model.Question) (*model.Result, error)
}

type askRequest struct {
	HouseholdID string `json:"householdId"`
	Question    string `json:"question"`
}

type success struct {
	Success bool `json:"success"`
	*model.Result
}

type failure struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	ErrorCode errx.Code `json:"errorCode"`
}

type AssistantHandler struct {
	asker Asker
}

func NewAssistantHandler(asker Asker) *AssistantHandler {
	return &AssistantHandler{asker: asker}
}

// Ask handles POST /api/assistant/ask.
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errx.InvalidInputf("request body must be JSON with householdId and question"))
		return
	}

	res, err := h.asker.Ask(c.Request.Context(), model.Question{
		Text:        req.Question,
		HouseholdID: req.HouseholdID,
		UserID:      c.GetString(ctxUserID),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, success{Success: true, Result: res})
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, err error) {
	code := errx.CodeOf(err)
	c.JSON(errx.StatusFor(code), failure{
		Error:     errx.MessageOf(err),
		ErrorCode: code,
	})
}
