// Package envelope writes the uniform {code, data} response wrapper.
//
// Business failures ride HTTP 200 with a non-zero code; only authentication
// (401) and authorization (403) use dedicated HTTP statuses. Clients depend
// on this asymmetry.
package envelope

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Application result codes.
const (
	CodeOK            = 0
	CodeBadRequest    = 40000
	CodeUnauthorized  = 40100
	CodeForbidden     = 40300
	CodeNotFound      = 40400
	CodeQuotaExceeded = 42901
	CodeInternal      = 50000
)

// OK writes a success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": CodeOK, "data": data})
}

// Fail writes a business failure at HTTP 200. Extra fields are merged into
// data next to the message.
func Fail(c *gin.Context, code int, message string, extra ...gin.H) {
	data := gin.H{"message": message}
	for _, fields := range extra {
		for k, v := range fields {
			data[k] = v
		}
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "data": data})
}

// Unauthorized writes an authentication failure at HTTP 401 and aborts the
// handler chain.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": CodeUnauthorized, "data": gin.H{"message": message}})
}

// Forbidden writes an authorization failure at HTTP 403 and aborts the
// handler chain.
func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": CodeForbidden, "data": gin.H{"message": message}})
}
