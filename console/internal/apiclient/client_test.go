package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesboard/mesboard/console/internal/config"
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/inspection"
	"github.com/mesboard/mesboard/pkg/types"
)

func newTestClient(t *testing.T, r *mux.Router, mutate ...func(*config.APIConfig)) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	cfg := config.Default().API
	cfg.BaseURL = srv.URL + "/api"
	cfg.RateLimit = 0
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_RequestIDOnEveryRequest(t *testing.T) {
	var ids []string
	r := mux.NewRouter()
	r.HandleFunc("/api/work-orders", func(w http.ResponseWriter, req *http.Request) {
		ids = append(ids, req.Header.Get(RequestIDHeader))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "quantity": 10, "status": "PLANNED"}})
	}).Methods(http.MethodGet)
	c := newTestClient(t, r)

	for i := 0; i < 2; i++ {
		orders, err := c.ListWorkOrders(context.Background())
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, types.WorkOrderPlanned, orders[0].Status)
	}

	require.Len(t, ids, 2)
	for _, id := range ids {
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, ids[0], ids[1])
}

func TestClient_APIKeyHeader(t *testing.T) {
	t.Setenv("MES_API_KEY", "secret")
	var got string
	r := mux.NewRouter()
	r.HandleFunc("/api/equipment", func(w http.ResponseWriter, req *http.Request) {
		got = req.Header.Get("X-API-Key")
		writeJSON(w, http.StatusOK, []Equipment{{ID: 1, Name: "press", Status: types.EquipmentRun}})
	})
	c := newTestClient(t, r, func(cfg *config.APIConfig) {
		cfg.Auth = config.AuthConfig{Mode: "apikey", KeyEnv: "MES_API_KEY"}
	})

	eq, err := c.ListEquipment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
	assert.Equal(t, types.EquipmentRun, eq[0].Status)
	assert.Equal(t, "secret", c.AuthHeader().Get("X-API-Key"))
}

func TestClient_BearerAuthHeader(t *testing.T) {
	t.Setenv("MES_TOKEN", "tok")
	c := newTestClient(t, mux.NewRouter(), func(cfg *config.APIConfig) {
		cfg.Auth = config.AuthConfig{Mode: "bearer", TokenEnv: "MES_TOKEN"}
	})
	assert.Equal(t, "Bearer tok", c.AuthHeader().Get("Authorization"))
}

func TestClient_NotFoundIsAPIError(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/lots/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "Lot not found: 9"})
	})
	c := newTestClient(t, r)

	_, err := c.GetLot(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.True(t, errors.Is(err, errs.ErrAPI))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Lot not found: 9", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_ServerErrorIsNotNotFound(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/dashboard/stats", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newTestClient(t, r)

	_, err := c.DashboardStats(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAPI))
	assert.False(t, errors.Is(err, errs.ErrNotFound))
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_UnreachableIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	cfg := config.Default().API
	cfg.BaseURL = base
	cfg.Timeout = time.Second
	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.ListLots(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConnection))
}

func TestClient_UpdateLotStatus(t *testing.T) {
	var status string
	r := mux.NewRouter()
	r.HandleFunc("/api/lots/{id}/status", func(w http.ResponseWriter, req *http.Request) {
		status = req.URL.Query().Get("status")
		writeJSON(w, http.StatusOK, map[string]any{"id": 3, "lotNumber": "LOT-20240101-0001", "status": status})
	}).Methods(http.MethodPut)
	c := newTestClient(t, r)

	lot, err := c.UpdateLotStatus(context.Background(), 3, types.LotOnHold)
	require.NoError(t, err)
	assert.Equal(t, "ON_HOLD", status)
	assert.Equal(t, types.LotOnHold, lot.Status)
}

func TestClient_ClientSideValidationSendsNothing(t *testing.T) {
	var hits atomic.Int32
	r := mux.NewRouter()
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	_, err := c.UpdateLotStatus(ctx, 1, types.LotStatus("LOST"))
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = c.SearchLots(ctx, "   ")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = c.CompleteInspection(ctx, 1, types.ResultPending)
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = c.CompleteInspection(ctx, 1, types.Result("MAYBE"))
	assert.True(t, errors.Is(err, errs.ErrValidation))

	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_SearchLotsEncodesKeyword(t *testing.T) {
	var keyword string
	r := mux.NewRouter()
	r.HandleFunc("/api/lots/search", func(w http.ResponseWriter, req *http.Request) {
		keyword = req.URL.Query().Get("keyword")
		writeJSON(w, http.StatusOK, []Lot{})
	})
	c := newTestClient(t, r)

	lots, err := c.SearchLots(context.Background(), " widget a&b ")
	require.NoError(t, err)
	assert.Empty(t, lots)
	assert.Equal(t, "widget a&b", keyword)
}

func TestClient_CompleteInspection(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/quality-inspections/{id}/complete", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "7", mux.Vars(req)["id"])
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     7,
			"type":   "FINAL",
			"status": "COMPLETED",
			"result": req.URL.Query().Get("result"),
			"items":  []any{},
		})
	}).Methods(http.MethodPut)
	c := newTestClient(t, r)

	in, err := c.CompleteInspection(context.Background(), 7, types.ResultConditionalPass)
	require.NoError(t, err)
	assert.Equal(t, types.InspectionCompleted, in.Status)
	require.NotNil(t, in.Result)
	assert.Equal(t, types.ResultConditionalPass, *in.Result)
}

func TestClient_UnknownResultLabelFailsDecode(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/quality-inspections/{id}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"type":"FINAL","status":"PENDING","items":[{"standardId":1,"result":"SORT_OF"}]}`))
	})
	c := newTestClient(t, r)

	_, err := c.GetInspection(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrParse))
}

func TestClient_UpdateInspectionItem(t *testing.T) {
	var (
		body   inspection.ItemRequest
		itemID string
	)
	r := mux.NewRouter()
	r.HandleFunc("/api/quality-inspections/{id}/items/{itemId}", func(w http.ResponseWriter, req *http.Request) {
		itemID = mux.Vars(req)["itemId"]
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":            11,
			"standardId":    body.StandardID,
			"measuredValue": body.MeasuredValue,
			"result":        body.Result,
		})
	}).Methods(http.MethodPut)
	c := newTestClient(t, r)

	_, err := c.UpdateInspectionItem(context.Background(), 5, inspection.Item{StandardID: 2})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	item := inspection.Item{ID: 11, StandardID: 2, MeasuredValue: "10.2", Result: types.ResultPass}
	saved, err := c.UpdateInspectionItem(context.Background(), 5, item)
	require.NoError(t, err)
	assert.Equal(t, "11", itemID)
	assert.Equal(t, "10.2", body.MeasuredValue)
	assert.Equal(t, types.ResultPass, saved.Result)
	assert.Equal(t, int64(11), saved.ID)
}

func TestClient_StandardsForProductTypeFilter(t *testing.T) {
	var gotType string
	r := mux.NewRouter()
	r.HandleFunc("/api/quality-inspections/standards/product/{id}", func(w http.ResponseWriter, req *http.Request) {
		gotType = req.URL.Query().Get("type")
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "code": "STD-1", "name": "Width", "lowerLimit": "9.5", "upperLimit": "10.5", "applicableType": "FINAL"},
		})
	})
	c := newTestClient(t, r)

	stds, err := c.StandardsForProduct(context.Background(), 4, types.InspectionFinal)
	require.NoError(t, err)
	assert.Equal(t, "FINAL", gotType)
	require.Len(t, stds, 1)
	assert.Equal(t, "9.5", stds[0].LowerLimit)
}

func TestClient_DashboardDecodesLocalDateTime(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/dashboard", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{
			"todayProduction": {"totalGoodQty": 90, "totalBadQty": 10, "totalQty": 100, "defectRate": 10},
			"productDefectRates": [],
			"equipmentStatuses": [{"equipmentId": 1, "equipmentName": "press", "status": "ALARM",
				"temperature": 91.5, "productionSpeed": 12, "lastUpdated": "2024-03-01T08:30:00"}],
			"workProgresses": []
		}`))
	})
	c := newTestClient(t, r)

	d, err := c.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, d.TodayProduction.TotalQty)
	require.Len(t, d.EquipmentStatuses, 1)
	assert.Equal(t, types.EquipmentAlarm, d.EquipmentStatuses[0].Status)
	assert.Equal(t, 8, d.EquipmentStatuses[0].LastUpdated.Hour())
}

func TestClient_DeleteNoContent(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/defects/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)
	c := newTestClient(t, r)

	assert.NoError(t, c.DeleteDefect(context.Background(), 2))
}

func TestClient_StreamClientHasNoTimeout(t *testing.T) {
	c := newTestClient(t, mux.NewRouter())
	assert.Zero(t, c.StreamHTTPClient().Timeout)
	assert.Equal(t, config.DefaultRequestTimeout, c.http.Timeout)
}

func TestClient_TLSConfigFollowsSettings(t *testing.T) {
	c := newTestClient(t, mux.NewRouter(), func(cfg *config.APIConfig) {
		cfg.TLS.InsecureSkipVerify = true
	})
	got := c.TLSConfig()
	require.NotNil(t, got)
	assert.True(t, got.InsecureSkipVerify)

	got.InsecureSkipVerify = false
	assert.True(t, c.TLSConfig().InsecureSkipVerify, "callers get a copy")
}

func TestClient_MTLSMissingCertFails(t *testing.T) {
	cfg := config.Default().API
	cfg.BaseURL = "https://mes.example/api"
	cfg.Auth.Mode = "mtls"
	cfg.Auth.CertFile = "/nonexistent/client.crt"
	cfg.Auth.KeyFile = "/nonexistent/client.key"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestClient_AddLotHistory(t *testing.T) {
	var got LotHistoryRequest
	r := mux.NewRouter()
	r.HandleFunc("/api/lots/history", func(w http.ResponseWriter, req *http.Request) {
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, map[string]any{"id": 11, "lotId": got.LotID, "outputQuantity": got.OutputQuantity})
	}).Methods(http.MethodPost)
	c := newTestClient(t, r)

	h, err := c.AddLotHistory(context.Background(), LotHistoryRequest{
		LotID: 3, ProcessID: 1, EquipmentID: 2, InputQuantity: 100, OutputQuantity: 97, DefectQuantity: 3, Operator: "kim",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), h.ID)
	assert.Equal(t, 97, got.OutputQuantity)
	assert.Equal(t, "kim", got.Operator)
}

func TestLotHistoryRequest_Validate(t *testing.T) {
	valid := LotHistoryRequest{LotID: 3, ProcessID: 1, EquipmentID: 2, InputQuantity: 10, OutputQuantity: 8, DefectQuantity: 2, Operator: "kim"}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*LotHistoryRequest){
		"no lot":          func(r *LotHistoryRequest) { r.LotID = 0 },
		"no process":      func(r *LotHistoryRequest) { r.ProcessID = 0 },
		"no equipment":    func(r *LotHistoryRequest) { r.EquipmentID = 0 },
		"blank operator":  func(r *LotHistoryRequest) { r.Operator = "  " },
		"negative defect": func(r *LotHistoryRequest) { r.DefectQuantity = -1 },
		"over input":      func(r *LotHistoryRequest) { r.OutputQuantity = 9 },
	}
	for name, mutate := range tests {
		r := valid
		mutate(&r)
		assert.ErrorIs(t, r.Validate(), errs.ErrValidation, name)
	}
}

func TestClient_AddLotHistoryInvalidSendsNothing(t *testing.T) {
	var calls atomic.Int32
	r := mux.NewRouter()
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	})
	c := newTestClient(t, r)

	_, err := c.AddLotHistory(context.Background(), LotHistoryRequest{LotID: 3, ProcessID: 1, EquipmentID: 2, InputQuantity: 1, OutputQuantity: 2, Operator: "kim"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Zero(t, calls.Load())
}
