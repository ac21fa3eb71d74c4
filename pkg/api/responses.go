package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) handleGetResponse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		responseNotFound(c)
		return
	}

	rec, err := a.store.GetResponseByID(c.Request.Context(), id)
	if err != nil {
		serverError(c, "Failed to fetch response", "Could not retrieve response")
		return
	}
	if rec == nil {
		responseNotFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "response": responseJSON(rec)})
}

func (a *API) handleDeleteResponse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		responseNotFound(c)
		return
	}
	if err := a.store.DeleteResponse(c.Request.Context(), id); err != nil {
		serverError(c, "Response deletion failed", "Could not delete response")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Response deleted"})
}

func responseNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Response not found",
		"message": "Response does not exist",
	})
}
