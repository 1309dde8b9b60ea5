package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/MrEthical07/adminauth"
	"github.com/MrEthical07/adminauth/menu"
	"github.com/MrEthical07/adminauth/password"
	"github.com/MrEthical07/adminauth/users"
)

type apiHarness struct {
	mr     *miniredis.Miniredis
	server *httptest.Server
	engine *adminauth.Engine
}

func newAPIHarness(t *testing.T, mutate ...func(*adminauth.Config)) *apiHarness {
	t.Helper()
	return newAPIHarnessWithMenus(t, menu.NewStatic([]menu.Item{{
		Path:  "system",
		Title: "System",
		Children: []menu.Item{
			{Path: "user", Component: "system/user/index", Title: "Users", Perms: "system:user:list"},
			{Path: "role", Component: "system/role/index", Title: "Roles", Perms: "system:role:list"},
		},
	}}), mutate...)
}

func newAPIHarnessWithMenus(t *testing.T, menus menu.Provider, mutate ...func(*adminauth.Config)) *apiHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	bc := password.NewBcrypt(4)
	hash, err := bc.Hash("admin123")
	require.NoError(t, err)
	store := users.NewMemoryStore(
		users.User{
			Principal: users.Principal{
				UserID: "1", Username: "admin", Nickname: "Admin",
				Roles: []string{"admin"}, Permissions: []string{"*:*:*"},
			},
			PasswordHash: hash,
			Status:       users.StatusActive,
		},
		users.User{
			Principal: users.Principal{
				UserID: "2", Username: "ry", Nickname: "Ry",
				Roles: []string{"common"}, Permissions: []string{"system:user:list"},
			},
			PasswordHash: hash,
			Status:       users.StatusActive,
		},
	)

	cfg := adminauth.DefaultConfig()
	cfg.Token.Secret = strings.Repeat("x", 32)
	for _, fn := range mutate {
		fn(&cfg)
	}

	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	engine, err := adminauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuthenticator(users.NewCredentialsAuthenticator(store, password.NewMulti(bc), logger)).
		WithLogger(logger).
		WithMetrics(reg).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	handler, err := NewRouter(Options{Engine: engine, Menus: menus, Gatherer: reg, Logger: logger})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &apiHarness{mr: mr, server: srv, engine: engine}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body io.Reader, header ...string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, h.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := h.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (h *apiHarness) captcha(t *testing.T) (string, string) {
	t.Helper()
	status, body := h.do(t, http.MethodGet, "/captchaImage", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["captchaEnabled"])
	id := body["uuid"].(string)
	code, err := h.mr.Get("captcha_codes:" + id)
	require.NoError(t, err)
	return id, code
}

func (h *apiHarness) loginJSON(t *testing.T, username, pass, code, id string, header ...string) map[string]any {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"username": username, "password": pass, "code": code, "uuid": id})
	require.NoError(t, err)
	header = append(header, "Content-Type", "application/json")
	status, body := h.do(t, http.MethodPost, "/login", "", strings.NewReader(string(payload)), header...)
	require.Equal(t, http.StatusOK, status)
	return body
}

func TestGetInfoRequiresAuthentication(t *testing.T) {
	h := newAPIHarness(t)

	status, body := h.do(t, http.MethodGet, "/getInfo", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.EqualValues(t, 401, body["code"])

	status, _ = h.do(t, http.MethodGet, "/getInfo", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginSessionLifecycle(t *testing.T) {
	h := newAPIHarness(t)
	id, code := h.captcha(t)

	body := h.loginJSON(t, "ry", "admin123", code, id)
	require.EqualValues(t, 200, body["code"], body["msg"])
	token := body["token"].(string)
	require.NotEmpty(t, token)

	status, info := h.do(t, http.MethodGet, "/getInfo", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"common"}, info["roles"])
	assert.Equal(t, []any{"system:user:list"}, info["permissions"])
	assert.Equal(t, "ry", info["user"].(map[string]any)["userName"])

	status, routers := h.do(t, http.MethodGet, "/getRouters", token, nil)
	require.Equal(t, http.StatusOK, status)
	data := routers["data"].([]any)
	require.Len(t, data, 1)
	children := data[0].(map[string]any)["children"].([]any)
	assert.Len(t, children, 1, "role menu is filtered out")

	status, out := h.do(t, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logout successful", out["msg"])

	status, _ = h.do(t, http.MethodGet, "/getInfo", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminSeesEverything(t *testing.T) {
	h := newAPIHarness(t)
	id, code := h.captcha(t)
	token := h.loginJSON(t, "admin", "admin123", code, id)["token"].(string)

	_, info := h.do(t, http.MethodGet, "/getInfo", token, nil)
	assert.Equal(t, []any{"admin"}, info["roles"])
	assert.Equal(t, []any{"*:*:*"}, info["permissions"])

	_, routers := h.do(t, http.MethodGet, "/getRouters", token, nil)
	children := routers["data"].([]any)[0].(map[string]any)["children"].([]any)
	assert.Len(t, children, 2)
}

type failingMenus struct{}

func (failingMenus) Routers(context.Context, []string) ([]menu.Router, error) {
	return nil, errors.New(`pq: relation "sys_menu" does not exist`)
}

func TestGetRoutersHidesProviderErrors(t *testing.T) {
	h := newAPIHarnessWithMenus(t, failingMenus{})
	id, code := h.captcha(t)
	token := h.loginJSON(t, "ry", "admin123", code, id)["token"].(string)

	status, body := h.do(t, http.MethodGet, "/getRouters", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 500, body["code"])
	assert.Equal(t, "Operation failed, please contact the administrator", body["msg"])
	assert.NotContains(t, body["msg"], "sys_menu")
}

func TestLoginFailuresUseAjaxEnvelope(t *testing.T) {
	h := newAPIHarness(t)

	id, _ := h.captcha(t)
	body := h.loginJSON(t, "admin", "admin123", "nope", id)
	assert.EqualValues(t, 500, body["code"])
	assert.Equal(t, "The verification code is incorrect", body["msg"])

	body = h.loginJSON(t, "admin", "admin123", "1234", id, "Accept-Language", "zh-CN,zh;q=0.9")
	assert.EqualValues(t, 500, body["code"])
	assert.Equal(t, "验证码已失效", body["msg"])

	id, code := h.captcha(t)
	body = h.loginJSON(t, "admin", "wrong", code, id)
	assert.Equal(t, "Incorrect username or password", body["msg"])
	assert.Nil(t, body["token"])
}

func TestLoginValidation(t *testing.T) {
	h := newAPIHarness(t)

	body := h.loginJSON(t, "", "admin123", "1", "x")
	assert.EqualValues(t, 500, body["code"])
	assert.Contains(t, body["msg"], "username required")

	status, out := h.do(t, http.MethodPost, "/login", "", strings.NewReader("{"), "Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, out["msg"], "malformed JSON body")
}

func TestLoginWithFormBody(t *testing.T) {
	h := newAPIHarness(t, func(c *adminauth.Config) { c.Captcha.Enabled = false })

	_, captcha := h.do(t, http.MethodGet, "/captchaImage", "", nil)
	assert.Equal(t, false, captcha["captchaEnabled"])
	assert.NotContains(t, captcha, "uuid")

	form := url.Values{"username": {"admin"}, "password": {"admin123"}}
	status, body := h.do(t, http.MethodPost, "/login", "", strings.NewReader(form.Encode()),
		"Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 200, body["code"])
	assert.NotEmpty(t, body["token"])
}

func TestLogoutWithoutTokenSucceeds(t *testing.T) {
	h := newAPIHarness(t)

	status, body := h.do(t, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 200, body["code"])
}

func TestHealthAndMetrics(t *testing.T) {
	h := newAPIHarness(t, func(c *adminauth.Config) { c.Captcha.Enabled = false })

	status, body := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	form := url.Values{"username": {"admin"}, "password": {"bad-password"}}
	h.do(t, http.MethodPost, "/login", "", strings.NewReader(form.Encode()), "Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.server.Client().Get(h.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `adminauth_login_total{outcome="credentials_invalid"} 1`)

	h.mr.Close()
	status, body = h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", body["status"])
}
