package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/executor"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// API owns the HTTP surface: auth, workspace/collection/request CRUD,
// and the execution endpoints backed by the executor service.
type API struct {
	store      storage.Store
	exec       *executor.Service
	log        *zap.Logger
	sessionTTL time.Duration
}

func New(store storage.Store, exec *executor.Service, log *zap.Logger, sessionTTL time.Duration) *API {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &API{store: store, exec: exec, log: log, sessionTTL: sessionTTL}
}

// RegisterRoutes wires all endpoints onto the engine. authMW guards
// everything except register/login/health; rateMW additionally guards
// the execute endpoint.
func (a *API) RegisterRoutes(r *gin.Engine, authMW, rateMW gin.HandlerFunc) {
	root := r.Group("/api")

	root.GET("/health", a.handleHealth)
	root.POST("/auth/register", a.handleRegister)
	root.POST("/auth/login", a.handleLogin)

	authed := root.Group("", authMW)
	authed.POST("/auth/logout", a.handleLogout)
	authed.GET("/auth/me", a.handleMe)

	authed.GET("/workspaces", a.handleListWorkspaces)
	authed.POST("/workspaces", a.handleCreateWorkspace)
	authed.GET("/workspaces/:id", a.handleGetWorkspace)
	authed.PUT("/workspaces/:id", a.handleUpdateWorkspace)
	authed.DELETE("/workspaces/:id", a.handleDeleteWorkspace)
	authed.GET("/workspaces/:id/environments", a.handleListEnvironments)
	authed.POST("/workspaces/:id/environments", a.handleCreateEnvironment)

	authed.POST("/collections", a.handleCreateCollection)
	authed.GET("/collections/:id", a.handleGetCollection)
	authed.PUT("/collections/:id", a.handleUpdateCollection)
	authed.DELETE("/collections/:id", a.handleDeleteCollection)

	authed.POST("/requests", a.handleCreateRequest)
	authed.GET("/requests/:id", a.handleGetRequest)
	authed.PUT("/requests/:id", a.handleUpdateRequest)
	authed.DELETE("/requests/:id", a.handleDeleteRequest)
	authed.POST("/requests/:id/execute", rateMW, a.handleExecuteRequest)
	authed.GET("/requests/:id/executions", a.handleListExecutions)

	authed.GET("/responses/:id", a.handleGetResponse)
	authed.DELETE("/responses/:id", a.handleDeleteResponse)

	authed.DELETE("/environments/:id", a.handleDeleteEnvironment)
	authed.POST("/variables", a.handleCreateVariable)
	authed.PUT("/variables/:id", a.handleUpdateVariable)
	authed.DELETE("/variables/:id", a.handleDeleteVariable)
	authed.GET("/variables/:ownerType/:ownerId", a.handleListVariables)
}

func (a *API) handleHealth(c *gin.Context) {
	dbStatus := "connected"
	if err := a.store.Ping(c.Request.Context()); err != nil {
		dbStatus = "unreachable"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "Server is running!",
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// resolveFailure maps resolver errors from the executor onto the HTTP
// responses the original routes used. The 403 body never reveals
// whether the workspace exists.
func (a *API) resolveFailure(c *gin.Context, err error, deniedMessage string) bool {
	var nf *executor.NotFoundError
	switch {
	case errors.As(err, &nf):
		switch nf.Resource {
		case "request":
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Request not found",
				"message": "API request does not exist",
			})
		case "collection":
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Collection not found",
				"message": "Parent collection does not exist",
			})
		default:
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not found",
				"message": nf.Error(),
			})
		}
		return true
	case errors.Is(err, executor.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": deniedMessage,
		})
		return true
	}
	return false
}

func serverError(c *gin.Context, errTitle, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   errTitle,
		"message": message,
	})
}

// responseJSON shapes a response record for API output: the stored
// header text is decoded (falling back to an empty object for legacy or
// corrupt rows), the body stays raw text.
func responseJSON(rec *model.ResponseRecord) gin.H {
	return gin.H{
		"id":               rec.ID,
		"status_code":      rec.StatusCode,
		"headers":          rec.HeaderMap(),
		"body":             rec.Body,
		"response_time_ms": rec.ResponseTimeMs,
		"created_at":       rec.CreatedAt,
	}
}

// paramID parses the named path parameter as an id. A non-numeric id
// behaves like a missing record, matching how the original treated
// garbage ids.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func historyRowJSON(ex *model.ExecutionWithResponse) gin.H {
	return gin.H{
		"id":                  ex.ID,
		"user_id":             ex.UserID,
		"request_id":          ex.RequestID,
		"response_id":         ex.ResponseID,
		"executed_at":         ex.ExecutedAt,
		"status_code":         ex.StatusCode,
		"headers":             model.ParseOrDefault(ex.Headers, map[string]string{}),
		"body":                ex.Body,
		"response_time_ms":    ex.ResponseTimeMs,
		"response_created_at": ex.ResponseCreatedAt,
	}
}
