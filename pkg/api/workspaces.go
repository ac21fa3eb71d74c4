package api

import (
	"net/http"
	"strings"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/middleware"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"

	"github.com/gin-gonic/gin"
)

func (a *API) handleListWorkspaces(c *gin.Context) {
	user := middleware.CurrentUser(c)
	workspaces, err := a.store.ListWorkspaces(c.Request.Context(), user.ID)
	if err != nil {
		serverError(c, "Failed to fetch workspaces", "Could not retrieve your workspaces")
		return
	}

	out := make([]gin.H, 0, len(workspaces))
	for _, ws := range workspaces {
		collections, err := a.store.CountCollections(c.Request.Context(), ws.ID)
		if err != nil {
			serverError(c, "Failed to fetch workspaces", "Could not retrieve your workspaces")
			return
		}
		environments, err := a.store.CountEnvironments(c.Request.Context(), ws.ID)
		if err != nil {
			serverError(c, "Failed to fetch workspaces", "Could not retrieve your workspaces")
			return
		}
		out = append(out, gin.H{
			"id":                ws.ID,
			"name":              ws.Name,
			"creator_id":        ws.CreatorID,
			"created_at":        ws.CreatedAt,
			"collection_count":  collections,
			"environment_count": environments,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "workspaces": out, "total": len(out)})
}

func (a *API) handleGetWorkspace(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		workspaceNotFound(c)
		return
	}

	ws, err := a.store.GetWorkspaceByIDAndCreator(c.Request.Context(), id, user.ID)
	if err != nil {
		serverError(c, "Failed to fetch workspace", "Could not retrieve workspace details")
		return
	}
	if ws == nil {
		workspaceNotFound(c)
		return
	}

	collections, err := a.store.ListCollections(c.Request.Context(), ws.ID)
	if err != nil {
		serverError(c, "Failed to fetch workspace", "Could not retrieve workspace details")
		return
	}
	environments, err := a.store.ListEnvironments(c.Request.Context(), ws.ID)
	if err != nil {
		serverError(c, "Failed to fetch workspace", "Could not retrieve workspace details")
		return
	}
	if environments == nil {
		environments = []*model.Environment{}
	}

	withCounts := make([]gin.H, 0, len(collections))
	for _, coll := range collections {
		n, err := a.store.CountRequests(c.Request.Context(), coll.ID)
		if err != nil {
			serverError(c, "Failed to fetch workspace", "Could not retrieve workspace details")
			return
		}
		withCounts = append(withCounts, gin.H{
			"id":            coll.ID,
			"workspace_id":  coll.WorkspaceID,
			"name":          coll.Name,
			"description":   coll.Description,
			"created_at":    coll.CreatedAt,
			"request_count": n,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"workspace": gin.H{
			"id":                ws.ID,
			"name":              ws.Name,
			"creator_id":        ws.CreatorID,
			"created_at":        ws.CreatedAt,
			"collections":       withCounts,
			"environments":      environments,
			"collection_count":  len(withCounts),
			"environment_count": len(environments),
		},
	})
}

type workspaceBody struct {
	Name string `json:"name"`
}

func (a *API) handleCreateWorkspace(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req workspaceBody
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Workspace name required",
			"message": "Please provide a name for the workspace",
		})
		return
	}

	id, err := a.store.CreateWorkspace(c.Request.Context(), strings.TrimSpace(req.Name), user.ID)
	if err != nil {
		serverError(c, "Workspace creation failed", "Could not create workspace")
		return
	}
	ws, err := a.store.GetWorkspaceByIDAndCreator(c.Request.Context(), id, user.ID)
	if err != nil || ws == nil {
		serverError(c, "Workspace creation failed", "Could not create workspace")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Workspace created successfully",
		"workspace": ws,
	})
}

func (a *API) handleUpdateWorkspace(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		workspaceNotFound(c)
		return
	}

	var req workspaceBody
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Workspace name required",
			"message": "Please provide a name for the workspace",
		})
		return
	}

	ws, err := a.store.GetWorkspaceByIDAndCreator(c.Request.Context(), id, user.ID)
	if err != nil {
		serverError(c, "Workspace update failed", "Could not update workspace")
		return
	}
	if ws == nil {
		workspaceNotFound(c)
		return
	}

	if err := a.store.UpdateWorkspaceName(c.Request.Context(), id, strings.TrimSpace(req.Name)); err != nil {
		serverError(c, "Workspace update failed", "Could not update workspace")
		return
	}
	updated, err := a.store.GetWorkspaceByIDAndCreator(c.Request.Context(), id, user.ID)
	if err != nil || updated == nil {
		serverError(c, "Workspace update failed", "Could not update workspace")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Workspace updated successfully",
		"workspace": updated,
	})
}

func (a *API) handleDeleteWorkspace(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		workspaceNotFound(c)
		return
	}

	ws, err := a.store.GetWorkspaceByIDAndCreator(c.Request.Context(), id, user.ID)
	if err != nil {
		serverError(c, "Workspace deletion failed", "Could not delete workspace")
		return
	}
	if ws == nil {
		workspaceNotFound(c)
		return
	}

	if err := a.store.DeleteWorkspace(c.Request.Context(), id); err != nil {
		serverError(c, "Workspace deletion failed", "Could not delete workspace")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Workspace deleted successfully"})
}

// workspaceNotFound covers both a missing workspace and one owned by a
// different user; the two are never distinguished.
func workspaceNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Workspace not found",
		"message": "Workspace does not exist or you do not have access",
	})
}
