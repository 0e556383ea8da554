package middleware

import (
	"hr_project/internal/auth"
	"hr_project/internal/domain"

	"github.com/gin-gonic/gin"
)

// RoleRequired lets admins through, plus any caller holding one of roles.
func RoleRequired(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireAnyRole(CurrentPrincipal(c), roles...); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireAdmin(CurrentPrincipal(c)); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}
