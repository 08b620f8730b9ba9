// Package handlers implements the route handlers behind the API surface.
package handlers

import (
	"strconv"
	"strings"

	"github.com/finboard/finboard/internal/models"

	"github.com/gin-gonic/gin"
)

// currentUser reads the account the auth middleware loaded for this request.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, ok := v.(models.User)
	if !ok {
		return nil
	}
	return &user
}

// parseID parses a numeric path parameter.
func parseID(c *gin.Context) (int64, bool) {
	id, errParse := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		return 0, false
	}
	return id, true
}
