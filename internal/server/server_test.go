package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"go-sales-crm/internal/config"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/service"
	"go-sales-crm/internal/ws"
	"go-sales-crm/pkg/database"
)

type testServer struct {
	app *fiber.App
	cfg config.Config
	svc Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenTest(t.Name())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.Config{
		Server: config.ServerConfig{AppName: "test"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		Import: config.ImportConfig{Workers: 2, MaxFileSize: 1 << 20},
	}
	svc := NewServices(cfg, db, nil)
	return &testServer{app: New(cfg, svc, nil), cfg: cfg, svc: svc}
}

func (s *testServer) login(t *testing.T, username, role string) string {
	t.Helper()
	ctx := context.Background()
	if _, err := s.svc.Users.CreateUser(ctx, &service.CreateUserRequest{Username: username, Password: "secreta1", Role: role}); err != nil {
		t.Fatalf("CreateUser %s: %v", username, err)
	}
	res, err := s.svc.Auth.Login(ctx, username, "secreta1")
	if err != nil {
		t.Fatalf("Login %s: %v", username, err)
	}
	return res.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func TestRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method, path, token string
	}{
		{http.MethodGet, "/api/v1/clients", ""},
		{http.MethodGet, "/api/v1/sales/1", ""},
		{http.MethodPost, "/api/v1/sales", "not-a-token"},
		{http.MethodDelete, "/api/v1/clients", "Basic abc"},
	}
	for _, tc := range tests {
		if code, _ := s.do(t, tc.method, tc.path, tc.token, nil); code != fiber.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", tc.method, tc.path, code)
		}
	}
}

func TestSocketRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "vendedor", model.RoleUser)
	s.app = New(s.cfg, s.svc, ws.NewHub())

	upgrade := func(target, auth string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		return req
	}

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"no token", upgrade("/ws", ""), fiber.StatusUnauthorized},
		{"bad query token", upgrade("/ws?token=not-a-token", ""), fiber.StatusUnauthorized},
		{"malformed header", upgrade("/ws?token="+token, "Basic abc"), fiber.StatusUnauthorized},
		{"plain request", httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil), fiber.StatusUpgradeRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code, _ := s.send(t, tc.req); code != tc.want {
				t.Errorf("status = %d, want %d", code, tc.want)
			}
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "ana", model.RoleUser)

	if code, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "ana"}); code != fiber.StatusBadRequest {
		t.Errorf("missing password = %d, want 400", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "ana", "password": "mala"}); code != fiber.StatusUnauthorized {
		t.Errorf("bad password = %d, want 401", code)
	}

	code, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "ana", "password": "secreta1"})
	if code != fiber.StatusOK {
		t.Fatalf("login = %d %s", code, body)
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &res); err != nil || res.Token == "" {
		t.Errorf("login body = %s", body)
	}
}

func TestClientAndSaleFlow(t *testing.T) {
	s := newTestServer(t)
	user := s.login(t, "vendedor", model.RoleUser)
	adminToken := s.login(t, "jefa", model.RoleAdmin)

	// Products are admin-managed.
	product := map[string]any{"name": "Harina", "net_price": "1000", "total_price": "1190"}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/products", user, product); code != fiber.StatusForbidden {
		t.Errorf("user create product = %d, want 403", code)
	}
	code, body := s.do(t, http.MethodPost, "/api/v1/products", adminToken, product)
	if code != fiber.StatusCreated {
		t.Fatalf("admin create product = %d %s", code, body)
	}
	var created struct {
		Data model.Product `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/clients", user, map[string]any{"legal_name": "Panadería Sur", "email": "sur@example.com"})
	if code != fiber.StatusCreated {
		t.Fatalf("create client = %d %s", code, body)
	}
	var client model.Client
	if err := json.Unmarshal(body, &client); err != nil {
		t.Fatalf("decode client: %v", err)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/v1/clients", user, map[string]any{"legal_name": "Otra", "email": "sur@example.com"}); code != fiber.StatusConflict {
		t.Errorf("duplicate email = %d, want 409", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/clients", user, map[string]any{"email": "x@example.com"}); code != fiber.StatusBadRequest {
		t.Errorf("missing legal name = %d, want 400", code)
	}

	missing := map[string]any{"client_id": client.ID, "items": []map[string]any{{"product_id": 999, "quantity": 1}}}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/sales", user, missing); code != fiber.StatusNotFound {
		t.Errorf("sale with missing product = %d, want 404", code)
	}

	sale := map[string]any{"client_id": client.ID, "items": []map[string]any{{"product_id": created.Data.ID, "quantity": 2}}}
	code, body = s.do(t, http.MethodPost, "/api/v1/sales", user, sale)
	if code != fiber.StatusCreated {
		t.Fatalf("create sale = %d %s", code, body)
	}
	var newSale model.Sale
	if err := json.Unmarshal(body, &newSale); err != nil {
		t.Fatalf("decode sale: %v", err)
	}

	code, body = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/sales/%d", newSale.ID), adminToken, nil)
	if code != fiber.StatusOK {
		t.Fatalf("admin get sale = %d %s", code, body)
	}
	var withTotal struct {
		Total decimal.Decimal `json:"total"`
	}
	if err := json.Unmarshal(body, &withTotal); err != nil {
		t.Fatalf("decode total: %v", err)
	}
	if !withTotal.Total.Equal(decimal.NewFromInt(2380)) {
		t.Errorf("total = %s, want 2380", withTotal.Total)
	}

	if code, _ := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/clients/%d", client.ID), adminToken, nil); code != fiber.StatusForbidden {
		t.Errorf("admin get client = %d, want 403", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/v1/clients/abc", user, nil); code != fiber.StatusBadRequest {
		t.Errorf("non-numeric id = %d, want 400", code)
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/clients?page=1", user, nil)
	if code != fiber.StatusOK {
		t.Fatalf("paged clients = %d", code)
	}
	var page struct {
		Total    int `json:"total"`
		PageSize int `json:"pageSize"`
	}
	if err := json.Unmarshal(body, &page); err != nil || page.Total != 1 || page.PageSize != 15 {
		t.Errorf("page = %s", body)
	}

	if code, _ := s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/clients/%d", client.ID), user, nil); code != fiber.StatusNoContent {
		t.Errorf("delete client = %d, want 204", code)
	}
	if code, _ := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/sales/%d", newSale.ID), user, nil); code != fiber.StatusNotFound {
		t.Errorf("sale after client delete = %d, want 404", code)
	}
}

func TestImportEndpoint(t *testing.T) {
	s := newTestServer(t)
	user := s.login(t, "importador", model.RoleUser)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "clientes.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fmt.Fprint(fw, "Razón Social;Correo;Comuna\nUno;uno@example.com;Ñuñoa\n;solo@example.com;\n")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+user)

	code, body := s.send(t, req)
	if code != fiber.StatusOK {
		t.Fatalf("import = %d %s", code, body)
	}
	var res service.ImportResult
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.CreatedCount != 1 || len(res.Errors) != 1 || res.ImportID == "" {
		t.Errorf("import result = %+v", res)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/v1/clients/import", user, nil); code != fiber.StatusBadRequest {
		t.Errorf("import without file = %d, want 400", code)
	}
}
