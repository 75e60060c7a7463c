package httputil

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKey is the type for keys set on the gin context by middlewares.
type ContextKey string

const (
	ContextURL    ContextKey = "url"    // Base URL of the API
	ContextUserID ContextKey = "userID" // The user the request is made for
)

// HeaderUserID identifies the user. It is set by the authenticating proxy in front of the API.
const HeaderUserID = "X-User-ID"

var ErrMissingUser = errors.New("the X-User-ID header must be set to a valid UUID")

// UserID returns the user the request is made for, uuid.Nil if there is none.
func UserID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(string(ContextUserID))
	if !ok {
		return uuid.Nil
	}

	id, _ := v.(uuid.UUID)
	return id
}

// BaseURL returns the base URL of the API.
func BaseURL(c *gin.Context) string {
	return c.GetString(string(ContextURL))
}
