package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clearcart/pricing-engine/api/routes"
	"github.com/clearcart/pricing-engine/internal/quotes"
	"github.com/clearcart/pricing-engine/internal/rules"
	"github.com/clearcart/pricing-engine/pkg/config"
	"github.com/clearcart/pricing-engine/pkg/db/models"
	"github.com/clearcart/pricing-engine/pkg/types"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(&models.PricingRule{}))

	rulesService, err := rules.NewService(rules.ServiceParams{
		Repo: rules.NewRepository(conn),
	})
	require.NoError(t, err)

	quotesService, err := quotes.NewService(rulesService, nil)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"

	handler := routes.NewRouter(cfg, nil, nil, nil, nil, rulesService, quotesService)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, server *httptest.Server, path, body string) *http.Response {
	t.Helper()
	res, err := http.Post(server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeData(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok, "expected object payload, got %T", envelope.Data)
	return data
}

func decodeError(t *testing.T, res *http.Response) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&envelope))
	return envelope.Error
}

func TestCreateRuleEndpoint(t *testing.T) {
	server := newTestServer(t)

	res := postJSON(t, server, "/v1/rules", `{
		"sku_id": "GR1",
		"kind": "discount",
		"definition": {"quantity": 3, "discountedQuantity": 2}
	}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	data := decodeData(t, res)
	require.Equal(t, "GR1", data["sku_id"])
	require.Equal(t, "discount", data["kind"])
}

func TestCreateRuleRejectsUnknownKind(t *testing.T) {
	server := newTestServer(t)

	res := postJSON(t, server, "/v1/rules", `{
		"sku_id": "GR1",
		"kind": "bogo",
		"definition": {"quantity": 3}
	}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "VALIDATION_ERROR", decodeError(t, res).Code)
}

func TestCreateRuleReportsMissingFields(t *testing.T) {
	server := newTestServer(t)

	res := postJSON(t, server, "/v1/rules", `{
		"sku_id": "GR1",
		"kind": "reducedPrice",
		"definition": {"quantity": 5}
	}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	apiErr := decodeError(t, res)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	require.Contains(t, apiErr.Message, "GR1")
	require.Contains(t, apiErr.Message, "bulkPrice")
}

func TestCreateRuleDuplicateConflicts(t *testing.T) {
	server := newTestServer(t)
	body := `{
		"sku_id": "GR1",
		"kind": "reducedPrice",
		"definition": {"quantity": 5, "bulkPrice": "8"}
	}`

	res := postJSON(t, server, "/v1/rules", body)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = postJSON(t, server, "/v1/rules", body)
	require.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestGetAndDeleteRuleEndpoints(t *testing.T) {
	server := newTestServer(t)

	res := postJSON(t, server, "/v1/rules", `{
		"sku_id": "GR1",
		"kind": "discount",
		"definition": {"quantity": 3, "discountedQuantity": 2}
	}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, err := http.Get(server.URL + "/v1/rules/GR1")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/v1/rules/GR1", nil)
	require.NoError(t, err)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(server.URL + "/v1/rules/GR1")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestQuoteEndpoint(t *testing.T) {
	server := newTestServer(t)

	res := postJSON(t, server, "/v1/rules", `{
		"sku_id": "GR1",
		"kind": "both",
		"definition": {"quantity": 3, "discountedQuantity": 2, "bulkPrice": "5"}
	}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = postJSON(t, server, "/v1/quotes", `{
		"sku_id": "GR1",
		"count": 10,
		"unit_price": "10"
	}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	data := decodeData(t, res)
	require.Equal(t, "both", data["kind"])
	require.Equal(t, "35", data["total"])
}

func TestQuoteUnknownSKU(t *testing.T) {
	server := newTestServer(t)

	res := postJSON(t, server, "/v1/quotes", `{
		"sku_id": "missing",
		"count": 1,
		"unit_price": "10"
	}`)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestQuoteValidatesBody(t *testing.T) {
	server := newTestServer(t)

	res := postJSON(t, server, "/v1/quotes", `{
		"sku_id": "GR1",
		"count": -1,
		"unit_price": "10"
	}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postJSON(t, server, "/v1/quotes", `{"sku_id": "GR1"}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postJSON(t, server, "/v1/quotes", `{not json`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHealthLive(t *testing.T) {
	server := newTestServer(t)

	res, err := http.Get(server.URL + "/health/live")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "test", res.Header.Get("X-Pricing-Env"))
}
