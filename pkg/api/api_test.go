package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/api"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/executor"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/middleware"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type rig struct {
	store *storage.SQLite
	r     *gin.Engine
}

func newRig(t *testing.T) *rig {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := executor.NewService(store, executor.NewDispatcher(executor.DispatcherOptions{}), zap.NewNop())
	a := api.New(store, svc, zap.NewNop(), time.Hour)

	r := gin.New()
	passthrough := func(c *gin.Context) { c.Next() }
	a.RegisterRoutes(r, middleware.Auth(store), passthrough)
	return &rig{store: store, r: r}
}

// seedUser creates a user with a live session, bypassing the bcrypt
// register/login round trip.
func (rg *rig) seedUser(t *testing.T, email string) (int64, string) {
	t.Helper()
	ctx := context.Background()
	userID, err := rg.store.CreateUser(ctx, email, "Test User", "not-checked")
	require.NoError(t, err)
	token := "token-" + email
	_, err = rg.store.CreateSession(ctx, userID, token, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return userID, token
}

// seedRequest builds workspace -> collection -> request for userID and
// returns the request id.
func (rg *rig) seedRequest(t *testing.T, userID int64, method, url string) int64 {
	t.Helper()
	ctx := context.Background()
	wsID, err := rg.store.CreateWorkspace(ctx, "Main", userID)
	require.NoError(t, err)
	collID, err := rg.store.CreateCollection(ctx, wsID, "Smoke", "")
	require.NoError(t, err)
	reqID, err := rg.store.CreateRequest(ctx, &model.RequestDefinition{
		CollectionID: collID,
		Name:         "target",
		Method:       method,
		URL:          url,
	})
	require.NoError(t, err)
	return reqID
}

func (rg *rig) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	rg.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rg := newRig(t)
	w := rg.do(http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Server is running!")
	assert.Contains(t, w.Body.String(), "connected")
}

func TestAuthRoundTrip(t *testing.T) {
	rg := newRig(t)

	w := rg.do(http.MethodPost, "/api/auth/register", "",
		`{"email":"A@Example.com","name":"Alice","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = rg.do(http.MethodPost, "/api/auth/login", "",
		`{"email":"a@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	w = rg.do(http.MethodGet, "/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@example.com")

	w = rg.do(http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = rg.do(http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	rg := newRig(t)

	w := rg.do(http.MethodPost, "/api/auth/register", "",
		`{"email":"a@example.com","name":"A","password":"tiny"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Password too short")

	w = rg.do(http.MethodPost, "/api/auth/register", "",
		`{"email":"not-an-email","name":"A","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email")

	w = rg.do(http.MethodPost, "/api/auth/register", "",
		`{"email":"a@example.com","name":"A","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = rg.do(http.MethodPost, "/api/auth/register", "",
		`{"email":"a@example.com","name":"A","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	rg := newRig(t)
	w := rg.do(http.MethodPost, "/api/auth/login", "",
		`{"email":"ghost@example.com","password":"whatever"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestCreateRequestValidation(t *testing.T) {
	rg := newRig(t)
	_, token := rg.seedUser(t, "a@example.com")

	w := rg.do(http.MethodPost, "/api/requests", token, `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Missing required fields", body["error"])

	w = rg.do(http.MethodPost, "/api/requests", token,
		`{"collection_id":1,"name":"x","method":"TRACE","url":"http://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "valid_methods")
}

func TestExecuteEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"queued":true}`))
	}))
	defer srv.Close()

	rg := newRig(t)
	userID, token := rg.seedUser(t, "a@example.com")
	reqID := rg.seedRequest(t, userID, "GET", srv.URL)

	w := rg.do(http.MethodPost, fmt.Sprintf("/api/requests/%d/execute", reqID), token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	execution, ok := body["execution"].(map[string]any)
	require.True(t, ok)
	response, ok := execution["response"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, http.StatusAccepted, response["status_code"])
	assert.Equal(t, `{"queued":true}`, response["body"])

	// The attempt is visible in paginated history.
	w = rg.do(http.MethodGet, fmt.Sprintf("/api/requests/%d/executions", reqID), token, "")
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)
	pagination, ok := history["pagination"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, pagination["total"])
	assert.EqualValues(t, 1, pagination["pages"])

	// And embedded into the request detail view.
	w = rg.do(http.MethodGet, fmt.Sprintf("/api/requests/%d", reqID), token, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	reqPayload, ok := detail["request"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, reqPayload["execution_count"])
}

func TestExecuteAccessDenied(t *testing.T) {
	rg := newRig(t)
	ownerID, _ := rg.seedUser(t, "owner@example.com")
	_, intruderToken := rg.seedUser(t, "intruder@example.com")
	reqID := rg.seedRequest(t, ownerID, "GET", "http://example.com")

	w := rg.do(http.MethodPost, fmt.Sprintf("/api/requests/%d/execute", reqID), intruderToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied")

	n, err := rg.store.CountExecutions(context.Background(), reqID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestExecuteUnknownRequest(t *testing.T) {
	rg := newRig(t)
	_, token := rg.seedUser(t, "a@example.com")

	w := rg.do(http.MethodPost, "/api/requests/424242/execute", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "API request does not exist")

	// Garbage ids behave like missing records.
	w = rg.do(http.MethodPost, "/api/requests/abc/execute", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rg := newRig(t)
	userID, token := rg.seedUser(t, "a@example.com")
	reqID := rg.seedRequest(t, userID, "GET", url)

	w := rg.do(http.MethodPost, fmt.Sprintf("/api/requests/%d/execute", reqID), token, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Request execution failed", body["error"])
	// The failed attempt was still recorded and is attached.
	execution, ok := body["execution"].(map[string]any)
	require.True(t, ok)
	response, ok := execution["response"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, model.StatusNetworkFailure, response["status_code"])

	n, err := rg.store.CountExecutions(context.Background(), reqID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResponseEndpoints(t *testing.T) {
	rg := newRig(t)
	_, token := rg.seedUser(t, "a@example.com")

	respID, err := rg.store.InsertResponse(context.Background(), &model.ResponseRecord{
		StatusCode: 200,
		Headers:    `{"Content-Type":"text/plain"}`,
		Body:       "hello",
	})
	require.NoError(t, err)

	w := rg.do(http.MethodGet, fmt.Sprintf("/api/responses/%d", respID), token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello")

	w = rg.do(http.MethodDelete, fmt.Sprintf("/api/responses/%d", respID), token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = rg.do(http.MethodGet, fmt.Sprintf("/api/responses/%d", respID), token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Response not found")
}

func TestCollectionLifecycle(t *testing.T) {
	rg := newRig(t)
	userID, token := rg.seedUser(t, "a@example.com")
	wsID, err := rg.store.CreateWorkspace(context.Background(), "Main", userID)
	require.NoError(t, err)

	w := rg.do(http.MethodPost, "/api/collections", token,
		fmt.Sprintf(`{"workspace_id":%d,"name":"Smoke","description":"smoke tests"}`, wsID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	coll, ok := created["collection"].(map[string]any)
	require.True(t, ok)
	collID := int64(coll["id"].(float64))

	w = rg.do(http.MethodPut, fmt.Sprintf("/api/collections/%d", collID), token,
		`{"name":"Regression"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Regression")

	w = rg.do(http.MethodGet, fmt.Sprintf("/api/collections/%d", collID), token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = rg.do(http.MethodDelete, fmt.Sprintf("/api/collections/%d", collID), token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = rg.do(http.MethodGet, fmt.Sprintf("/api/collections/%d", collID), token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVariableLifecycle(t *testing.T) {
	rg := newRig(t)
	userID, token := rg.seedUser(t, "a@example.com")
	wsID, err := rg.store.CreateWorkspace(context.Background(), "Main", userID)
	require.NoError(t, err)

	w := rg.do(http.MethodPost, "/api/variables", token,
		fmt.Sprintf(`{"owner_id":%d,"owner_type":"workspace","key":"host","value":"api.example.com"}`, wsID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	v, ok := created["variable"].(map[string]any)
	require.True(t, ok)
	varID := int64(v["id"].(float64))

	w = rg.do(http.MethodGet, fmt.Sprintf("/api/variables/workspace/%d", wsID), token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api.example.com")

	w = rg.do(http.MethodPut, fmt.Sprintf("/api/variables/%d", varID), token,
		`{"key":"host","value":"staging.example.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = rg.do(http.MethodDelete, fmt.Sprintf("/api/variables/%d", varID), token, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWorkspaceScoping(t *testing.T) {
	rg := newRig(t)
	_, ownerToken := rg.seedUser(t, "owner@example.com")
	_, otherToken := rg.seedUser(t, "other@example.com")

	w := rg.do(http.MethodPost, "/api/workspaces", ownerToken, `{"name":"Private"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	ws, ok := created["workspace"].(map[string]any)
	require.True(t, ok)
	wsID := int64(ws["id"].(float64))

	w = rg.do(http.MethodGet, fmt.Sprintf("/api/workspaces/%d", wsID), ownerToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = rg.do(http.MethodGet, fmt.Sprintf("/api/workspaces/%d", wsID), otherToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Workspace does not exist or you do not have access")
}
