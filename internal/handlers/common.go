package handlers

import "github.com/gin-gonic/gin"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// OrgID returns the organization injected by the auth middleware.
func OrgID(c *gin.Context) string {
	return c.GetString("org_id")
}

// UserID returns the authenticated user injected by the auth middleware.
func UserID(c *gin.Context) string {
	return c.GetString("user_id")
}
