package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"kitstore/internal/config"
	"kitstore/internal/http/handlers"
	"kitstore/internal/repos"
)

func testConfig() config.Config {
	return config.Config{
		Port:       "0",
		DBDSN:      ":memory:",
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		AIBaseURL:  "http://127.0.0.1:1", // unreachable unless a test overrides it
		AIModel:    "llama2",
		AITimeout:  2 * time.Second,
	}
}

func newTestApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return handlers.NewApp(handlers.NewDeps(db, cfg))
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func obtainToken(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	resp := doJSON(t, app, "POST", "/api/token", "", map[string]string{
		"username": username, "password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token obtain for %s: status %d", username, resp.StatusCode)
	}
	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	decode(t, resp, &pair)
	return pair.Access
}

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
}

type orderJSON struct {
	ID         string          `json:"id"`
	User       string          `json:"user"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     string          `json:"status"`
	Items      []struct {
		ProductID string          `json:"product_id"`
		Quantity  int             `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
		Product   *productJSON    `json:"product"`
	} `json:"items"`
}

func TestProductListIsPublic(t *testing.T) {
	app := newTestApp(t, testConfig())

	for _, token := range []string{"", "garbage-token"} {
		resp := doJSON(t, app, "GET", "/api/products", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list with token %q: status %d", token, resp.StatusCode)
		}
		var products []productJSON
		decode(t, resp, &products)
		if len(products) < 5 {
			t.Fatalf("want seeded products, got %d", len(products))
		}
	}
}

func TestProductWritesRequireAuth(t *testing.T) {
	app := newTestApp(t, testConfig())

	cases := []struct{ method, path string }{
		{"POST", "/api/products/create"},
		{"PUT", "/api/products/jersey-mex-home"},
		{"PATCH", "/api/products/jersey-mex-home"},
		{"DELETE", "/api/products/jersey-mex-home"},
	}
	for _, tc := range cases {
		resp := doJSON(t, app, tc.method, tc.path, "", map[string]string{"name": "x"})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s anonymous: status %d, want 401", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestProductRoundTrip(t *testing.T) {
	app := newTestApp(t, testConfig())
	token := obtainToken(t, app, "admin", "admin123")

	in := map[string]any{
		"name":        "Germany Home Jersey 2026",
		"description": "White with black trim.",
		"price":       "119.99",
		"stock":       12,
		"image_url":   "https://example.test/ger.png",
		"category":    "Home",
	}
	resp := doJSON(t, app, "POST", "/api/products/create", token, in)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var created productJSON
	decode(t, resp, &created)
	if created.ID == "" {
		t.Fatal("no id assigned")
	}

	resp = doJSON(t, app, "GET", "/api/products/"+created.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	var got productJSON
	decode(t, resp, &got)

	if got.Name != in["name"] || got.Description != in["description"] ||
		got.Category != in["category"] || got.ImageURL != in["image_url"] || got.Stock != 12 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Price.Equal(decimal.RequireFromString("119.99")) {
		t.Fatalf("price = %s, want 119.99", got.Price)
	}
}

func TestProductValidationErrors(t *testing.T) {
	app := newTestApp(t, testConfig())
	token := obtainToken(t, app, "admin", "admin123")

	resp := doJSON(t, app, "POST", "/api/products/create", token, map[string]any{
		"price": "-1.00",
		"stock": -5,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, resp, &body)
	for _, field := range []string{"name", "price", "stock"} {
		if body.Errors[field] == "" {
			t.Fatalf("missing field error for %q: %+v", field, body.Errors)
		}
	}
}

func TestProductPatchMergesFields(t *testing.T) {
	app := newTestApp(t, testConfig())
	token := obtainToken(t, app, "admin", "admin123")

	resp := doJSON(t, app, "PATCH", "/api/products/jersey-mex-home", token, map[string]any{
		"price": "99.99",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: status %d", resp.StatusCode)
	}
	var got productJSON
	decode(t, resp, &got)
	if got.Name != "Mexico Home Jersey 2026" {
		t.Fatalf("patch clobbered name: %q", got.Name)
	}
	if !got.Price.Equal(decimal.RequireFromString("99.99")) {
		t.Fatalf("price = %s, want 99.99", got.Price)
	}
	if got.Stock != 50 {
		t.Fatalf("patch clobbered stock: %d", got.Stock)
	}
}

func TestProductPutReplaces(t *testing.T) {
	app := newTestApp(t, testConfig())
	token := obtainToken(t, app, "admin", "admin123")

	resp := doJSON(t, app, "PUT", "/api/products/jersey-mex-home", token, map[string]any{
		"name":  "Mexico Home Jersey",
		"price": "110.00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put: status %d", resp.StatusCode)
	}
	var got productJSON
	decode(t, resp, &got)
	if got.Description != "" || got.Stock != 0 || got.Category != "" {
		t.Fatalf("put should replace unlisted fields with zero values: %+v", got)
	}
}

func TestProductDeleteAndNotFound(t *testing.T) {
	app := newTestApp(t, testConfig())
	token := obtainToken(t, app, "admin", "admin123")

	resp := doJSON(t, app, "DELETE", "/api/products/jersey-esp-home", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "GET", "/api/products/jersey-esp-home", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "DELETE", "/api/products/jersey-esp-home", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("double delete: status %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "PUT", "/api/products/no-such-id", token, map[string]any{
		"name": "x", "price": "1.00",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update missing: status %d", resp.StatusCode)
	}
}

func TestOrderCreateAndOwnerRead(t *testing.T) {
	app := newTestApp(t, testConfig())
	adminTok := obtainToken(t, app, "admin", "admin123")
	demoTok := obtainToken(t, app, "demo", "demo1234")

	resp := doJSON(t, app, "POST", "/api/orders", adminTok, map[string]any{
		"items": []map[string]any{
			{"product_id": "jersey-mex-home", "quantity": 2, "price": "10.00"},
		},
		"total_price": "20.00",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: status %d", resp.StatusCode)
	}
	var o orderJSON
	decode(t, resp, &o)

	if o.User != "u-admin" {
		t.Fatalf("order user = %q, want the caller", o.User)
	}
	if o.Status != "pending" {
		t.Fatalf("status = %q, want pending", o.Status)
	}
	if len(o.Items) != 1 {
		t.Fatalf("want 1 item, got %d", len(o.Items))
	}
	it := o.Items[0]
	if it.ProductID != "jersey-mex-home" || it.Quantity != 2 || !it.Price.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("item mismatch: %+v", it)
	}
	if it.Product == nil || it.Product.Name != "Mexico Home Jersey 2026" {
		t.Fatalf("embedded product missing: %+v", it.Product)
	}
	if !o.TotalPrice.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("total = %s, want 20.00", o.TotalPrice)
	}

	// owner can read it back
	resp = doJSON(t, app, "GET", "/api/orders/"+o.ID, adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner read: status %d", resp.StatusCode)
	}

	// another user sees 404, not 403
	resp = doJSON(t, app, "GET", "/api/orders/"+o.ID, demoTok, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign read: status %d, want 404", resp.StatusCode)
	}

	// history is scoped to the caller
	resp = doJSON(t, app, "GET", "/api/orders", demoTok, nil)
	var demoOrders []orderJSON
	decode(t, resp, &demoOrders)
	if len(demoOrders) != 0 {
		t.Fatalf("demo sees %d foreign orders", len(demoOrders))
	}
	resp = doJSON(t, app, "GET", "/api/orders", adminTok, nil)
	var adminOrders []orderJSON
	decode(t, resp, &adminOrders)
	if len(adminOrders) != 1 {
		t.Fatalf("admin history: want 1 order, got %d", len(adminOrders))
	}
}

func TestOrderRequiresAuth(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp := doJSON(t, app, "POST", "/api/orders", "", map[string]any{"items": []any{}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous create: status %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "GET", "/api/orders/some-id", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous read: status %d", resp.StatusCode)
	}
}

func TestOrderUnknownProductIsAtomic(t *testing.T) {
	app := newTestApp(t, testConfig())
	token := obtainToken(t, app, "admin", "admin123")

	resp := doJSON(t, app, "POST", "/api/orders", token, map[string]any{
		"items": []map[string]any{
			{"product_id": "jersey-mex-home", "quantity": 1, "price": "129.99"},
			{"product_id": "no-such-product", "quantity": 1, "price": "5.00"},
		},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, app, "GET", "/api/orders", token, nil)
	var orders []orderJSON
	decode(t, resp, &orders)
	if len(orders) != 0 {
		t.Fatalf("partial order survived: %d", len(orders))
	}
}

func TestTokenObtainAndRefresh(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp := doJSON(t, app, "POST", "/api/token", "", map[string]string{
		"username": "admin", "password": "wrongpass",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad creds: status %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/token", "", map[string]string{
		"username": "admin", "password": "admin123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("obtain: status %d", resp.StatusCode)
	}
	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	decode(t, resp, &pair)
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("incomplete pair: %+v", pair)
	}

	// a refresh token is not a valid bearer credential
	resp = doJSON(t, app, "GET", "/api/orders", pair.Refresh, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh token accepted as access: status %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/token/refresh", "", map[string]string{"refresh": pair.Refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: status %d", resp.StatusCode)
	}
	var refreshed struct {
		Access string `json:"access"`
	}
	decode(t, resp, &refreshed)

	resp = doJSON(t, app, "GET", "/api/orders", refreshed.Access, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refreshed access rejected: status %d", resp.StatusCode)
	}
}

func TestTokenThrottle(t *testing.T) {
	app := newTestApp(t, testConfig())

	for i := 0; i < 5; i++ {
		resp := doJSON(t, app, "POST", "/api/token", "", map[string]string{
			"username": "admin", "password": "wrongpass",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status %d", i+1, resp.StatusCode)
		}
	}
	resp := doJSON(t, app, "POST", "/api/token", "", map[string]string{
		"username": "admin", "password": "wrongpass",
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("want 429 after throttle, got %d", resp.StatusCode)
	}
}

func TestDescribeEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "Crisp tricolor kit."})
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.AIBaseURL = upstream.URL
	app := newTestApp(t, cfg)
	token := obtainToken(t, app, "admin", "admin123")

	resp := doJSON(t, app, "POST", "/api/ai/describe", "", map[string]string{"name": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous describe: status %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/ai/describe", token, map[string]string{
		"name": "Mexico Home Jersey", "category": "Home",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("describe: status %d", resp.StatusCode)
	}
	var out struct {
		Description string `json:"description"`
	}
	decode(t, resp, &out)
	if out.Description != "Crisp tricolor kit." {
		t.Fatalf("description = %q", out.Description)
	}
}

func TestDescribeFailureIsGeneric(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ollama exploded: secret trace", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.AIBaseURL = upstream.URL
	app := newTestApp(t, cfg)
	token := obtainToken(t, app, "admin", "admin123")

	resp := doJSON(t, app, "POST", "/api/ai/describe", token, map[string]string{
		"name": "Mexico Home Jersey", "category": "Home",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	s := string(body)
	if s == "" || bytes.Contains(body, []byte("exploded")) || bytes.Contains(body, []byte("secret")) {
		t.Fatalf("upstream details leaked: %s", s)
	}
	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Error == "" {
		t.Fatalf("want generic error envelope, got %s", s)
	}
}

func TestHealthzAndUnknownRoute(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp := doJSON(t, app, "GET", "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "GET", "/api/nope", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown route: status %d", resp.StatusCode)
	}
}
