package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/middleware"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"

	"github.com/gin-gonic/gin"
)

// ownedCollection loads a collection and verifies the acting user owns
// the workspace it lives in. Returns nil with replied=true when a
// response has already been written.
func (a *API) ownedCollection(c *gin.Context, ctx context.Context, collectionID, userID int64, deniedMessage string) (*model.Collection, bool) {
	coll, err := a.store.GetCollectionByID(ctx, collectionID)
	if err != nil {
		serverError(c, "Failed to fetch collection", "Could not retrieve collection")
		return nil, true
	}
	if coll == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Collection not found",
			"message": "Collection does not exist",
		})
		return nil, true
	}
	ws, err := a.store.GetWorkspaceByIDAndCreator(ctx, coll.WorkspaceID, userID)
	if err != nil {
		serverError(c, "Failed to fetch collection", "Could not retrieve collection")
		return nil, true
	}
	if ws == nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": deniedMessage,
		})
		return nil, true
	}
	return coll, false
}

type collectionBody struct {
	WorkspaceID int64  `json:"workspace_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) handleCreateCollection(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req collectionBody
	if err := c.ShouldBindJSON(&req); err != nil || req.WorkspaceID == 0 || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required fields",
			"message": "workspace_id and name are required",
		})
		return
	}

	ws, err := a.store.GetWorkspaceByIDAndCreator(c.Request.Context(), req.WorkspaceID, user.ID)
	if err != nil {
		serverError(c, "Collection creation failed", "Could not create collection")
		return
	}
	if ws == nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You do not have permission to add collections to this workspace",
		})
		return
	}

	id, err := a.store.CreateCollection(c.Request.Context(), req.WorkspaceID,
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
	if err != nil {
		serverError(c, "Collection creation failed", "Could not create collection")
		return
	}
	coll, err := a.store.GetCollectionByID(c.Request.Context(), id)
	if err != nil || coll == nil {
		serverError(c, "Collection creation failed", "Could not create collection")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Collection created successfully",
		"collection": coll,
	})
}

func (a *API) handleGetCollection(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Collection not found",
			"message": "Collection does not exist",
		})
		return
	}

	coll, replied := a.ownedCollection(c, c.Request.Context(), id, user.ID,
		"You do not have permission to access this collection")
	if replied {
		return
	}

	requests, err := a.store.ListRequests(c.Request.Context(), coll.ID)
	if err != nil {
		serverError(c, "Failed to fetch collection", "Could not retrieve collection")
		return
	}
	if requests == nil {
		requests = []*model.RequestDefinition{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"collection": gin.H{
			"id":            coll.ID,
			"workspace_id":  coll.WorkspaceID,
			"name":          coll.Name,
			"description":   coll.Description,
			"created_at":    coll.CreatedAt,
			"requests":      requests,
			"request_count": len(requests),
		},
	})
}

func (a *API) handleUpdateCollection(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Collection not found",
			"message": "Collection does not exist",
		})
		return
	}

	var req collectionBody
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required fields",
			"message": "name is required",
		})
		return
	}

	coll, replied := a.ownedCollection(c, c.Request.Context(), id, user.ID,
		"You do not have permission to edit this collection")
	if replied {
		return
	}

	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = coll.Description
	}
	if err := a.store.UpdateCollection(c.Request.Context(), id, strings.TrimSpace(req.Name), desc); err != nil {
		serverError(c, "Collection update failed", "Could not update collection")
		return
	}
	updated, err := a.store.GetCollectionByID(c.Request.Context(), id)
	if err != nil || updated == nil {
		serverError(c, "Collection update failed", "Could not update collection")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Collection updated successfully",
		"collection": updated,
	})
}

func (a *API) handleDeleteCollection(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Collection not found",
			"message": "Collection does not exist",
		})
		return
	}

	if _, replied := a.ownedCollection(c, c.Request.Context(), id, user.ID,
		"You do not have permission to delete this collection"); replied {
		return
	}

	if err := a.store.DeleteCollection(c.Request.Context(), id); err != nil {
		serverError(c, "Collection deletion failed", "Could not delete collection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Collection deleted successfully"})
}
