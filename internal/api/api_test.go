package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/server/internal/agent/model"
	errx "github.com/stockroom-app/server/internal/core/error"
)

type askerStub struct {
	got      []model.Question
	deadline bool
	result   *model.Result
	err      error
	panics   bool
}

func (s *askerStub) Ask(ctx context.Context, q model.Question) (*model.Result, error) {
	if s.panics {
		panic("boom")
	}
	s.got = append(s.got, q)
	_, s.deadline = ctx.Deadline()
	return s.result, s.err
}

func newTestRouter(asker Asker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterOptions{
		Asker:          asker,
		AllowedOrigins: []string{"https://app.stockroom.test"},
		RequestTimeout: 5 * time.Second,
	})
}

func postAsk(t *testing.T, r http.Handler, body string, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/assistant/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestAskSuccess(t *testing.T) {
	clarify := "Which room?"
	stub := &askerStub{result: &model.Result{
		Answer:             "You have AA Batteries (2 pack).",
		Confidence:         model.ConfidenceHigh,
		Citations:          []model.Citation{{EntityType: model.EntityItem, ID: "item-1", Name: "AA Batteries", Quantity: 2, Unit: "pack"}},
		Suggestions:        []model.Suggestion{},
		ClarifyingQuestion: &clarify,
	}}
	resp := postAsk(t, newTestRouter(stub), `{"householdId":"h-1","question":"Do I have batteries?"}`, "user-1")

	require.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "You have AA Batteries (2 pack).", body["answer"])
	assert.Equal(t, "high", body["confidence"])
	assert.Equal(t, "Which room?", body["clarifyingQuestion"])
	assert.Len(t, body["citations"], 1)
	assert.Equal(t, []any{}, body["suggestions"])

	require.Len(t, stub.got, 1)
	assert.Equal(t, model.Question{Text: "Do I have batteries?", HouseholdID: "h-1", UserID: "user-1"}, stub.got[0])
	assert.True(t, stub.deadline)
	assert.NotEmpty(t, resp.Header().Get("X-Request-ID"))
}

func TestAskRequiresUser(t *testing.T) {
	stub := &askerStub{}
	resp := postAsk(t, newTestRouter(stub), `{"householdId":"h-1","question":"hi"}`, "")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "unauthenticated", body["errorCode"])
	assert.Empty(t, stub.got)
}

func TestAskMalformedBody(t *testing.T) {
	stub := &askerStub{}
	resp := postAsk(t, newTestRouter(stub), `{bad json`, "user-1")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid_input", decode(t, resp)["errorCode"])
	assert.Empty(t, stub.got)
}

func TestAskErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errx.InvalidInputf("question is required"), http.StatusBadRequest, "invalid_input"},
		{errx.New(errx.ForbiddenHousehold, "you are not a member of this household", nil), http.StatusForbidden, "forbidden_household"},
		{errx.New(errx.BudgetExceeded, "budget reached", nil), http.StatusTooManyRequests, "budget_exceeded"},
		{errx.New(errx.Disabled, "the assistant is disabled", nil), http.StatusServiceUnavailable, "disabled"},
		{errx.WrapProvider(assert.AnError), http.StatusInternalServerError, "provider_unavailable"},
		{assert.AnError, http.StatusInternalServerError, "fetch_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			resp := postAsk(t, newTestRouter(&askerStub{err: tc.err}), `{"householdId":"h-1","question":"hi"}`, "user-1")
			assert.Equal(t, tc.status, resp.Code)
			body := decode(t, resp)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.code, body["errorCode"])
			assert.Equal(t, errx.MessageOf(tc.err), body["error"])
		})
	}
}

func TestAskInternalErrorHidesDetails(t *testing.T) {
	resp := postAsk(t, newTestRouter(&askerStub{err: assert.AnError}), `{"householdId":"h-1","question":"hi"}`, "user-1")
	assert.Equal(t, errx.SystemErrorMessage, decode(t, resp)["error"])
}

func TestRecoveryReturnsJSON(t *testing.T) {
	resp := postAsk(t, newTestRouter(&askerStub{panics: true}), `{"householdId":"h-1","question":"hi"}`, "user-1")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, false, decode(t, resp)["success"])
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	newTestRouter(&askerStub{}).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", decode(t, resp)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(&askerStub{result: &model.Result{Answer: "ok", Confidence: model.ConfidenceMedium}})
	postAsk(t, r, `{"householdId":"h-1","question":"hi"}`, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "stockroom_http_requests_total")
}

func TestCORS(t *testing.T) {
	r := newTestRouter(&askerStub{})

	req := httptest.NewRequest(http.MethodOptions, "/api/assistant/ask", nil)
	req.Header.Set("Origin", "https://app.stockroom.test")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "https://app.stockroom.test", resp.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.test")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp := httptest.NewRecorder()
	newTestRouter(&askerStub{}).ServeHTTP(resp, req)
	assert.Equal(t, "req-42", resp.Header().Get("X-Request-ID"))
}
