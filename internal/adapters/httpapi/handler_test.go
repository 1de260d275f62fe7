package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"festivalcore/internal/adapters/httpapi"
	"festivalcore/internal/core"
	"festivalcore/internal/safeupdate"
	"festivalcore/pkg/domain"
)

const (
	goodsPerms = "goods"
	stockPerms = "goods_stock"
	allPerms   = "admin,news,goods,goods_stock,ticket"
)

func newServer(t *testing.T, opts ...httpapi.Option) (*httptest.Server, *core.Service) {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	srv := httptest.NewServer(httpapi.NewHandler(svc, opts...))
	t.Cleanup(srv.Close)
	return srv, svc
}

func do(t *testing.T, srv *httptest.Server, method, path, perms string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpapi.HeaderCaller, "tester")
	if perms != "" {
		req.Header.Set(httpapi.HeaderPermissions, perms)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func sampleGoods(name string) domain.Goods {
	return domain.Goods{Name: name, Price: 2000, Stock: domain.StockInStock, Group: "apparel", Description: "tee"}
}

func createGoods(t *testing.T, srv *httptest.Server, g domain.Goods) domain.Goods {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/api/v1/goods", goodsPerms, g)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create goods: status %d body %s", resp.StatusCode, body)
	}
	return decode[struct {
		Item domain.Goods `json:"item"`
	}](t, body).Item
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)
	resp, body := do(t, srv, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"ok"`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestGoodsCRUD(t *testing.T) {
	srv, _ := newServer(t)
	created := createGoods(t, srv, sampleGoods("tote"))
	if created.ID == "" {
		t.Fatalf("expected store-assigned id")
	}

	resp, body := do(t, srv, http.MethodGet, "/api/v1/goods", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %d", resp.StatusCode)
	}
	list := decode[struct {
		Items []domain.Goods `json:"items"`
	}](t, body)
	if len(list.Items) != 1 || list.Items[0].Name != "tote" {
		t.Fatalf("unexpected list %+v", list.Items)
	}

	resp, _ = do(t, srv, http.MethodGet, "/api/v1/goods/"+created.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: %d", resp.StatusCode)
	}

	resp, _ = do(t, srv, http.MethodDelete, "/api/v1/goods/"+created.ID, stockPerms, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stock editor delete: expected 403, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodDelete, "/api/v1/goods/"+created.ID, goodsPerms, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodGet, "/api/v1/goods/"+created.ID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateErrors(t *testing.T) {
	srv, _ := newServer(t)
	createGoods(t, srv, sampleGoods("tote"))

	cases := []struct {
		name   string
		path   string
		perms  string
		body   any
		status int
	}{
		{"forbidden", "/api/v1/goods", stockPerms, sampleGoods("cap"), http.StatusForbidden},
		{"invalid", "/api/v1/goods", goodsPerms, domain.Goods{Name: "cap", Stock: "plenty"}, http.StatusBadRequest},
		{"duplicate name", "/api/v1/goods", goodsPerms, sampleGoods("tote"), http.StatusConflict},
		{"malformed", "/api/v1/goods", goodsPerms, "not an object", http.StatusBadRequest},
		{"unknown permission", "/api/v1/goods", "goods,root", sampleGoods("cap"), http.StatusBadRequest},
		{"unknown kind", "/api/v1/stages", allPerms, sampleGoods("cap"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodPost, tc.path, tc.perms, tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d body %s", tc.status, resp.StatusCode, body)
			}
		})
	}
}

func TestSafeUpdateOutcomes(t *testing.T) {
	srv, _ := newServer(t)
	tote := createGoods(t, srv, sampleGoods("tote"))
	createGoods(t, srv, sampleGoods("cap"))
	path := "/api/v1/goods/" + tote.ID + "/update"

	// First editor marks the item low on stock.
	first := tote
	first.Stock = domain.StockLow
	resp, body := do(t, srv, http.MethodPost, path, stockPerms, map[string]any{"prior": tote, "proposed": first})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", resp.StatusCode, body)
	}
	if report := decode[safeupdate.Report](t, body); report.Outcome != safeupdate.Success {
		t.Fatalf("expected success, got %+v", report)
	}

	// Second editor still holds the original snapshot.
	second := tote
	second.Stock = domain.StockSoldOut
	_, body = do(t, srv, http.MethodPost, path, goodsPerms, map[string]any{"prior": tote, "proposed": second})
	report := decode[safeupdate.Report](t, body)
	if report.Outcome != safeupdate.Overwrite || len(report.Conflicts) != 1 || report.Conflicts[0] != "stock" {
		t.Fatalf("expected stock conflict, got %+v", report)
	}

	// Renaming onto a name another item holds is reported, not committed.
	renamed := tote
	renamed.Name = "cap"
	_, body = do(t, srv, http.MethodPost, path, goodsPerms, map[string]any{"prior": tote, "proposed": renamed})
	if report := decode[safeupdate.Report](t, body); report.Outcome != safeupdate.NameExists {
		t.Fatalf("expected name_exists, got %+v", report)
	}

	_, body = do(t, srv, http.MethodPost, path, goodsPerms, map[string]any{"prior": tote, "proposed": tote})
	if report := decode[safeupdate.Report](t, body); report.Outcome != safeupdate.NoChange {
		t.Fatalf("expected no_change, got %+v", report)
	}

	priced := tote
	priced.Price = 100
	_, body = do(t, srv, http.MethodPost, path, stockPerms, map[string]any{"prior": tote, "proposed": priced})
	if report := decode[safeupdate.Report](t, body); report.Outcome != safeupdate.Invalid {
		t.Fatalf("stock editor changing price: expected invalid, got %+v", report)
	}

	resp, _ = do(t, srv, http.MethodPost, "/api/v1/goods/other/update", goodsPerms, map[string]any{"prior": tote, "proposed": tote})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("path mismatch: expected 400, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodPost, path, "news", map[string]any{"prior": tote, "proposed": second})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("news editor: expected 403, got %d", resp.StatusCode)
	}
}

func TestOverwrite(t *testing.T) {
	srv, svc := newServer(t)
	tote := createGoods(t, srv, sampleGoods("tote"))
	path := "/api/v1/goods/" + tote.ID + "/overwrite"
	forced := tote
	forced.Stock = domain.StockSoldOut
	forced.Price = 2500

	resp, _ := do(t, srv, http.MethodPost, path, goodsPerms, map[string]any{"proposed": forced})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing confirmation: expected 400, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodPost, path, stockPerms, map[string]any{"proposed": forced, "confirm": true})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stock editor overwrite: expected 403, got %d", resp.StatusCode)
	}
	resp, body := do(t, srv, http.MethodPost, path, goodsPerms, map[string]any{"proposed": forced, "confirm": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overwrite: %d %s", resp.StatusCode, body)
	}
	if out := decode[map[string]bool](t, body); !out["ok"] {
		t.Fatalf("expected ok, got %s", body)
	}
	stored, err := svc.GetGoods(t.Context(), tote.ID)
	if err != nil {
		t.Fatalf("get goods: %v", err)
	}
	if stored.Price != 2500 || stored.Stock != domain.StockSoldOut {
		t.Fatalf("overwrite not applied: %+v", stored)
	}

	resp, _ = do(t, srv, http.MethodPost, "/api/v1/goods/other/overwrite", goodsPerms, map[string]any{"proposed": forced, "confirm": true})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("path mismatch: expected 400, got %d", resp.StatusCode)
	}

	orphan := forced
	orphan.ID = ""
	resp, body = do(t, srv, http.MethodPost, "/api/v1/goods/missing/overwrite", goodsPerms, map[string]any{"proposed": orphan, "confirm": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overwrite missing: %d %s", resp.StatusCode, body)
	}
	if out := decode[map[string]bool](t, body); out["ok"] {
		t.Fatalf("expected overwrite of unknown id to fail, got %s", body)
	}
}

func TestAdminPasswordHashHidden(t *testing.T) {
	srv, _ := newServer(t)
	resp, _ := do(t, srv, http.MethodPost, "/api/v1/admins", "admin", map[string]any{"name": "mika", "permissions": []string{"news"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", resp.StatusCode)
	}
	resp, body := do(t, srv, http.MethodPost, "/api/v1/admins", "admin", map[string]any{
		"name":        "mika",
		"permissions": []string{"news"},
		"password":    "hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create admin: %d %s", resp.StatusCode, body)
	}
	if strings.Contains(string(body), "password_hash") {
		t.Fatalf("password hash leaked: %s", body)
	}
	_, body = do(t, srv, http.MethodGet, "/api/v1/admins", "", nil)
	if strings.Contains(string(body), "password_hash") {
		t.Fatalf("password hash leaked in list: %s", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := core.NewPrometheusMetricsRecorder(nil)
	srv, _ := newServer(t, httpapi.WithMetricsHandler(metrics.Handler()))
	resp, _ := do(t, srv, http.MethodGet, "/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}

	bare, _ := newServer(t)
	resp, _ = do(t, bare, http.MethodGet, "/metrics", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("metrics without handler: expected 404, got %d", resp.StatusCode)
	}
}
