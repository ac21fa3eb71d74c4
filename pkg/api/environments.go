package api

import (
	"net/http"
	"strings"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/middleware"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"

	"github.com/gin-gonic/gin"
)

func (a *API) handleListEnvironments(c *gin.Context) {
	user := middleware.CurrentUser(c)
	wsID, ok := paramID(c, "id")
	if !ok {
		workspaceNotFound(c)
		return
	}

	ws, err := a.store.GetWorkspaceByIDAndCreator(c.Request.Context(), wsID, user.ID)
	if err != nil {
		serverError(c, "Failed to fetch environments", "Could not retrieve environments")
		return
	}
	if ws == nil {
		workspaceNotFound(c)
		return
	}

	envs, err := a.store.ListEnvironments(c.Request.Context(), wsID)
	if err != nil {
		serverError(c, "Failed to fetch environments", "Could not retrieve environments")
		return
	}
	if envs == nil {
		envs = []*model.Environment{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "environments": envs, "total": len(envs)})
}

type environmentBody struct {
	Name string `json:"name"`
}

func (a *API) handleCreateEnvironment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	wsID, ok := paramID(c, "id")
	if !ok {
		workspaceNotFound(c)
		return
	}

	var req environmentBody
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Environment name required",
			"message": "Please provide a name for the environment",
		})
		return
	}

	ws, err := a.store.GetWorkspaceByIDAndCreator(c.Request.Context(), wsID, user.ID)
	if err != nil {
		serverError(c, "Environment creation failed", "Could not create environment")
		return
	}
	if ws == nil {
		workspaceNotFound(c)
		return
	}

	id, err := a.store.CreateEnvironment(c.Request.Context(), wsID, strings.TrimSpace(req.Name))
	if err != nil {
		serverError(c, "Environment creation failed", "Could not create environment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "Environment created",
		"environment": gin.H{"id": id, "workspace_id": wsID, "name": strings.TrimSpace(req.Name)},
	})
}

func (a *API) handleDeleteEnvironment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Environment not found",
			"message": "Environment does not exist",
		})
		return
	}
	if err := a.store.DeleteEnvironment(c.Request.Context(), id); err != nil {
		serverError(c, "Environment deletion failed", "Could not delete environment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Environment deleted"})
}

type variableBody struct {
	OwnerID   int64  `json:"owner_id"`
	OwnerType string `json:"owner_type"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

func (a *API) handleCreateVariable(c *gin.Context) {
	var req variableBody
	if err := c.ShouldBindJSON(&req); err != nil || req.OwnerID == 0 || req.OwnerType == "" || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields",
			"fields": gin.H{
				"owner_id":   req.OwnerID == 0,
				"owner_type": req.OwnerType == "",
				"key":        req.Key == "",
			},
		})
		return
	}

	id, err := a.store.CreateVariable(c.Request.Context(), &model.Variable{
		OwnerID:   req.OwnerID,
		OwnerType: req.OwnerType,
		Key:       strings.TrimSpace(req.Key),
		Value:     req.Value,
	})
	if err != nil {
		serverError(c, "Variable creation failed", "Could not create variable")
		return
	}
	v, err := a.store.GetVariableByID(c.Request.Context(), id)
	if err != nil || v == nil {
		serverError(c, "Variable creation failed", "Could not create variable")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Variable created", "variable": v})
}

func (a *API) handleUpdateVariable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Variable not found",
			"message": "Variable does not exist",
		})
		return
	}

	var req variableBody
	if err := c.ShouldBindJSON(&req); err != nil || (req.Key == "" && req.Value == "") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "No updates provided",
			"message": "Provide key or value to update",
		})
		return
	}

	current, err := a.store.GetVariableByID(c.Request.Context(), id)
	if err != nil {
		serverError(c, "Variable update failed", "Could not update variable")
		return
	}
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Variable not found",
			"message": "Variable does not exist",
		})
		return
	}

	key := current.Key
	if req.Key != "" {
		key = strings.TrimSpace(req.Key)
	}
	value := current.Value
	if req.Value != "" {
		value = req.Value
	}
	if err := a.store.UpdateVariable(c.Request.Context(), id, key, value); err != nil {
		serverError(c, "Variable update failed", "Could not update variable")
		return
	}
	updated, err := a.store.GetVariableByID(c.Request.Context(), id)
	if err != nil || updated == nil {
		serverError(c, "Variable update failed", "Could not update variable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Variable updated", "variable": updated})
}

func (a *API) handleDeleteVariable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Variable not found",
			"message": "Variable does not exist",
		})
		return
	}
	if err := a.store.DeleteVariable(c.Request.Context(), id); err != nil {
		serverError(c, "Variable deletion failed", "Could not delete variable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Variable deleted"})
}

func (a *API) handleListVariables(c *gin.Context) {
	ownerID, ok := paramID(c, "ownerId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid owner",
			"message": "Owner id must be numeric",
		})
		return
	}
	ownerType := c.Param("ownerType")

	vars, err := a.store.ListVariables(c.Request.Context(), ownerID, ownerType)
	if err != nil {
		serverError(c, "Failed to fetch variables", "Could not retrieve variables")
		return
	}
	if vars == nil {
		vars = []*model.Variable{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "variables": vars, "total": len(vars)})
}
