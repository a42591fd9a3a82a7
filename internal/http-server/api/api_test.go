package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"entrypass/entity"
	"entrypass/impl/auth"
	"entrypass/impl/core"
	"entrypass/internal/config"
	"entrypass/internal/database"
	"entrypass/internal/notifier"
	"entrypass/lib/api/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   http.Handler
	store    *database.Memory
	notifier *notifier.Notifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := database.NewMemory()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, store.SaveUser(context.Background(), &entity.User{
		Id: 1, Username: "ana", PasswordHash: hash, Role: entity.RoleSeller,
	}))

	n := notifier.New()
	c := core.New(store, n, log)
	c.SetAuthService(auth.New(store, auth.Config{
		Secret:     []byte("test-signing-key"),
		Issuer:     "entrypass",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}))

	conf := &config.Config{
		HTTP: config.HTTPConfig{
			RequestTimeout: 5 * time.Second,
			Heartbeat:      time.Hour,
			CorsOrigins:    []string{"http://localhost:3000"},
		},
	}
	return &testEnv{
		router:   NewRouter(conf, log, c),
		store:    store,
		notifier: n,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) *entity.TokenPair {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", "", `{"username":"ana","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair entity.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	return &pair
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/entries", `{"name":"Ana","surname":"Diaz","nationalId":"111"}`},
		{http.MethodGet, "/entries", ""},
		{http.MethodGet, "/entries/1", ""},
		{http.MethodPatch, "/entries/1/status", `{"status":"registered"}`},
		{http.MethodPost, "/entries/scan", `{"entryId":1}`},
	} {
		rec := e.do(t, tc.method, tc.path, "", tc.body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, response.MsgMissingToken, body["message"])
		assert.NotEmpty(t, body["timestamp"])
	}

	rec := e.do(t, http.MethodGet, "/entries", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	passes, err := e.store.ListPasses(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, passes)
}

func TestRefreshTokenIsNotAccepted(t *testing.T) {
	e := newTestEnv(t)
	pair := e.login(t)

	rec := e.do(t, http.MethodGet, "/entries", pair.RefreshToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/auth/refresh", "", `{"refreshToken":"`+pair.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed entity.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.Equal(t, "ana", refreshed.User.Username)

	rec = e.do(t, http.MethodPost, "/auth/refresh", "", `{"refreshToken":"`+pair.AccessToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/auth/login", "", `{"username":"ana","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.MsgInvalidCredentials, decode(t, rec)["message"])

	rec = e.do(t, http.MethodPost, "/auth/login", "", `{"username":"nobody","password":"s3cret"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.MsgInvalidCredentials, decode(t, rec)["message"])

	rec = e.do(t, http.MethodPost, "/auth/login", "", `{"username":"ana"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPassLifecycle(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t).AccessToken

	rec := e.do(t, http.MethodPost, "/entries", token, `{"name":"Ana","surname":"Diaz","nationalId":"111"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	issued := decode(t, rec)
	assert.Equal(t, "pending entry", issued["status"])
	assert.Nil(t, issued["checkedInAt"])
	assert.Len(t, issued, 9)
	id := int64(issued["id"].(float64))
	require.Positive(t, id)

	rec = e.do(t, http.MethodPost, "/entries", token, `{"name":"Ana","surname":"","nationalId":"111"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/entries?search=diaz", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = e.do(t, http.MethodGet, "/entries?search=nobody", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/entries/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.MsgInvalidId, decode(t, rec)["message"])

	rec = e.do(t, http.MethodGet, "/entries/999", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.MsgPassNotFound, decode(t, rec)["message"])

	rec = e.do(t, http.MethodGet, "/entries/1/code", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"code":"1-111"}`, rec.Body.String())

	ch, cancel := e.notifier.Subscribe()
	defer cancel()

	rec = e.do(t, http.MethodPost, "/entries/scan", token, `{"code":"1-111"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	scanned := decode(t, rec)
	assert.Equal(t, "entry registered", scanned["status"])
	assert.NotNil(t, scanned["checkedInAt"])
	select {
	case <-ch:
	default:
		t.Fatal("scan did not notify")
	}

	rec = e.do(t, http.MethodPost, "/entries/scan", token, `{"entryId":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.MsgScanRejected, decode(t, rec)["message"])

	rec = e.do(t, http.MethodPost, "/entries/scan", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPatch, "/entries/1/status", token, `{"status":"pending"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reset := decode(t, rec)
	assert.Equal(t, "pending entry", reset["status"])
	assert.Nil(t, reset["checkedInAt"])
	assert.Equal(t, issued["createdAt"], reset["createdAt"])

	rec = e.do(t, http.MethodPatch, "/entries/1/status", token, `{"status":"entry registered"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "entry registered", decode(t, rec)["status"])

	rec = e.do(t, http.MethodPatch, "/entries/1/status", token, `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPatch, "/entries/999/status", token, `{"status":"pending"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPassQR(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t).AccessToken

	rec := e.do(t, http.MethodPost, "/entries", token, `{"name":"Ana","surname":"Diaz","nationalId":"111"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodGet, "/entries/1/qr.png?size=128", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = e.do(t, http.MethodGet, "/entries/1/qr.png?size=10", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/entries/2/qr.png", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.MsgRouteNotFound, decode(t, rec)["message"])

	rec = e.do(t, http.MethodDelete, "/auth/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, response.MsgNotAllowed, decode(t, rec)["message"])
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestEventStream(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	next := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimSpace(line)
			if line != "" {
				return line
			}
		}
	}

	assert.Equal(t, `data: {"type":"connected"}`, next())
	assert.Equal(t, 1, e.notifier.Subscribers())

	e.notifier.Publish()
	assert.Equal(t, `data: {"type":"invalidate"}`, next())
}
