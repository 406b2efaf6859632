package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/civicgrid/grievance-api/internal/models"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
	"github.com/civicgrid/grievance-api/pkg/response"
)

// RequireRoles gates a route to the given roles. Ownership and assignment
// scoping is enforced by the services; this middleware only checks the
// coarse role boundary.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
