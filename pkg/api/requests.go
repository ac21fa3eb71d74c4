package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/executor"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/middleware"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"

	"github.com/gin-gonic/gin"
)

// embeddedHistoryLimit caps the executions embedded into request
// detail responses.
const embeddedHistoryLimit = 50

type requestBody struct {
	CollectionID int64             `json:"collection_id"`
	Name         string            `json:"name"`
	Method       string            `json:"method"`
	URL          string            `json:"url"`
	Body         string            `json:"body"`
	Headers      map[string]string `json:"headers"`
}

func requestNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Request not found",
		"message": "API request does not exist",
	})
}

func (a *API) handleCreateRequest(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req requestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.CollectionID == 0 || req.Name == "" || req.Method == "" || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields",
			"fields": gin.H{
				"collection_id": req.CollectionID == 0,
				"name":          req.Name == "",
				"method":        req.Method == "",
				"url":           req.URL == "",
			},
		})
		return
	}

	method := strings.ToUpper(req.Method)
	if !model.IsValidMethod(method) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Invalid HTTP method",
			"message":       "Method must be one of: " + strings.Join(model.ValidMethods, ", "),
			"valid_methods": model.ValidMethods,
		})
		return
	}

	if _, replied := a.ownedCollection(c, c.Request.Context(), req.CollectionID, user.ID,
		"You do not have permission to add requests to this collection"); replied {
		return
	}

	def := &model.RequestDefinition{
		CollectionID: req.CollectionID,
		Name:         strings.TrimSpace(req.Name),
		Method:       method,
		URL:          strings.TrimSpace(req.URL),
		Body:         req.Body,
		Headers:      marshalHeaderField(req.Headers),
	}
	id, err := a.store.CreateRequest(c.Request.Context(), def)
	if err != nil {
		serverError(c, "Request creation failed", "Could not create new API request")
		return
	}
	created, err := a.store.GetRequestByID(c.Request.Context(), id)
	if err != nil || created == nil {
		serverError(c, "Request creation failed", "Could not create new API request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Request created successfully",
		"request": created,
	})
}

func (a *API) handleGetRequest(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		requestNotFound(c)
		return
	}

	req, err := a.exec.Resolve(c.Request.Context(), id, user.ID)
	if err != nil {
		if a.resolveFailure(c, err, "You do not have permission to access this request") {
			return
		}
		serverError(c, "Failed to fetch request", "Could not retrieve request details")
		return
	}

	executions, err := a.exec.RecentExecutions(c.Request.Context(), id, user.ID, embeddedHistoryLimit)
	if err != nil {
		serverError(c, "Failed to fetch request", "Could not retrieve request details")
		return
	}
	rows := make([]gin.H, 0, len(executions))
	for _, ex := range executions {
		rows = append(rows, historyRowJSON(ex))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"request": gin.H{
			"id":              req.ID,
			"collection_id":   req.CollectionID,
			"name":            req.Name,
			"method":          req.Method,
			"url":             req.URL,
			"body":            req.Body,
			"headers":         req.HeaderMap(),
			"created_at":      req.CreatedAt,
			"executions":      rows,
			"execution_count": len(rows),
		},
	})
}

func (a *API) handleUpdateRequest(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		requestNotFound(c)
		return
	}

	current, err := a.exec.Resolve(c.Request.Context(), id, user.ID)
	if err != nil {
		if a.resolveFailure(c, err, "You do not have permission to edit this request") {
			return
		}
		serverError(c, "Request update failed", "Could not update API request")
		return
	}

	var req requestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated := *current
	changed := false
	if req.Name != "" {
		updated.Name = strings.TrimSpace(req.Name)
		changed = true
	}
	if req.Method != "" {
		method := strings.ToUpper(req.Method)
		if !model.IsValidMethod(method) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "Invalid HTTP method",
				"valid_methods": model.ValidMethods,
			})
			return
		}
		updated.Method = method
		changed = true
	}
	if req.URL != "" {
		updated.URL = strings.TrimSpace(req.URL)
		changed = true
	}
	if req.Body != "" {
		updated.Body = req.Body
		changed = true
	}
	if req.Headers != nil {
		updated.Headers = marshalHeaderField(req.Headers)
		changed = true
	}
	if !changed {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "No updates provided",
			"message": "Provide at least one field to update",
		})
		return
	}

	if err := a.store.UpdateRequest(c.Request.Context(), &updated); err != nil {
		serverError(c, "Request update failed", "Could not update API request")
		return
	}
	fresh, err := a.store.GetRequestByID(c.Request.Context(), id)
	if err != nil || fresh == nil {
		serverError(c, "Request update failed", "Could not update API request")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Request updated successfully",
		"request": fresh,
	})
}

func (a *API) handleDeleteRequest(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		requestNotFound(c)
		return
	}

	if _, err := a.exec.Resolve(c.Request.Context(), id, user.ID); err != nil {
		if a.resolveFailure(c, err, "You do not have permission to delete this request") {
			return
		}
		serverError(c, "Request deletion failed", "Could not delete API request")
		return
	}

	if err := a.store.DeleteRequest(c.Request.Context(), id); err != nil {
		serverError(c, "Request deletion failed", "Could not delete API request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Request deleted successfully"})
}

// handleExecuteRequest performs a real outbound call. The endpoint
// returns 200 whenever a remote response was obtained, whatever its
// status; 500 is reserved for dispatch failures (no remote response
// existed) and for recording failures — in both cases the caller still
// gets everything that is known about the attempt.
func (a *API) handleExecuteRequest(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		requestNotFound(c)
		return
	}

	result, err := a.exec.Execute(c.Request.Context(), id, user.ID)
	if err != nil {
		if a.resolveFailure(c, err, "You do not have permission to execute this request") {
			return
		}
		var re *executor.RecordingError
		if errors.As(err, &re) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":            false,
				"error":              "Request execution failed",
				"message":            "Could not record execution history",
				"persistence_failed": true,
				"response":           responseJSON(re.Response),
			})
			return
		}
		serverError(c, "Request execution failed", "Could not execute API request")
		return
	}

	executionPayload := gin.H{
		"id":          result.Execution.ID,
		"user_id":     result.Execution.UserID,
		"request_id":  result.Execution.RequestID,
		"response_id": result.Execution.ResponseID,
		"executed_at": result.Execution.ExecutedAt,
		"response":    responseJSON(result.Response),
	}

	if result.NetworkFailure != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Request execution failed",
			"message":   result.NetworkFailure.Err.Error(),
			"execution": executionPayload,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Request executed successfully",
		"execution": executionPayload,
	})
}

func (a *API) handleListExecutions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		requestNotFound(c)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(executor.DefaultHistoryLimit)))

	history, err := a.exec.ListExecutions(c.Request.Context(), id, user.ID, page, limit)
	if err != nil {
		if a.resolveFailure(c, err, "You do not have permission to view this request's history") {
			return
		}
		serverError(c, "Failed to fetch execution history", "Could not retrieve request executions")
		return
	}

	rows := make([]gin.H, 0, len(history.Executions))
	for _, ex := range history.Executions {
		rows = append(rows, historyRowJSON(ex))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"executions": rows,
		"pagination": history.Pagination,
	})
}

func marshalHeaderField(h map[string]string) string {
	if len(h) == 0 {
		return ""
	}
	b, err := json.Marshal(h)
	if err != nil {
		return ""
	}
	return string(b)
}
