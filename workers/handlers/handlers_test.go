package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gohtlcbridge/chains"
	"gohtlcbridge/chains/mock"
	"gohtlcbridge/orchestrator"
	"gohtlcbridge/store"
	"gohtlcbridge/store/memory"
	"gohtlcbridge/types"
)

func newTestRouter(t *testing.T) (*chi.Mux, *mock.Adapter, *mock.Adapter) {
	t.Helper()

	source := mock.NewAdapter(types.CHAIN_ETHEREUM)
	dest := mock.NewAdapter(types.CHAIN_SUI)
	st := memory.NewStore()

	orch := orchestrator.New(st, []chains.Adapter{source, dest}, map[types.Chain]string{
		types.CHAIN_ETHEREUM: "0xbridge",
		types.CHAIN_SUI:      "0xbridgesui",
	}, &store.KeyedMutex{}, orchestrator.Config{
		ConfirmWait:     5 * time.Second,
		DefaultTimelock: 2 * time.Hour,
	}, zerolog.Nop())

	h := &Handler{Orch: orch, Store: st, Log: zerolog.Nop()}

	r := chi.NewRouter()
	r.Get("/state", h.State)
	r.Post("/swap", h.CreateSwap)
	r.Get("/swap/{orderID}", h.GetSwap)
	r.Post("/swap/{orderID}/execute", h.ExecuteSwap)
	r.Post("/swap/{orderID}/refund", h.RefundSwap)
	r.Get("/swaps", h.ListSwaps)

	return r, source, dest
}

func createSwap(t *testing.T, r http.Handler, params orchestrator.Params) *SwapOrderResponse {
	t.Helper()

	body, err := json.Marshal(params)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/swap", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp SwapOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return &resp
}

func validParams() orchestrator.Params {
	return orchestrator.Params{
		SourceChain: types.CHAIN_ETHEREUM,
		DestChain:   types.CHAIN_SUI,
		Amount:      "100",
		Recipient:   "0xrecipient",
	}
}

func TestCreateSwapNeverLeaksSecret(t *testing.T) {
	r, _, _ := newTestRouter(t)

	body, err := json.Marshal(validParams())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/swap", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.NotContains(t, rec.Body.String(), "secret")

	var resp SwapOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.STATUS_LOCKED, resp.Status)
	assert.NotEmpty(t, resp.Hashlock)

	// the stored order is not leaked through GET either
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swap/"+resp.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestCreateSwapValidationError(t *testing.T) {
	r, _, _ := newTestRouter(t)

	params := validParams()
	params.DestChain = params.SourceChain
	body, err := json.Marshal(params)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/swap", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestCreateSwapMalformedJSON(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/swap", bytes.NewReader([]byte("{not json"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSwapNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swap/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteSwapEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)
	order := createSwap(t, r, validParams())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/swap/%s/execute", order.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SwapOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.STATUS_WITHDRAWN, resp.Status)

	// second settlement attempt conflicts
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/swap/%s/refund", order.ID), nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefundBeforeExpiryConflicts(t *testing.T) {
	r, _, _ := newTestRouter(t)
	order := createSwap(t, r, validParams())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/swap/%s/refund", order.ID), nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListSwaps(t *testing.T) {
	r, _, _ := newTestRouter(t)
	createSwap(t, r, validParams())

	other := validParams()
	other.Recipient = "0xother"
	createSwap(t, r, other)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swaps?recipient=0xother", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []*SwapOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "0xother", resp[0].Recipient)

	// recipient param is mandatory
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swaps", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestState(t *testing.T) {
	r, _, _ := newTestRouter(t)
	createSwap(t, r, validParams())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp APIStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Orders["locked"])
}
