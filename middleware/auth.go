package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/headshot-gladiators/teamops-api/utils"
)

// AuthMiddleware validates the bearer token and stores the acting
// member's identity in the request context. Operations always resolve
// the actor from here, never from a client-supplied field.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			c.Abort()
			return
		}

		claims, err := utils.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("member_id", claims.MemberID)
		c.Set("team_id", claims.TeamID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// GetMemberID returns the acting member's id set by AuthMiddleware.
func GetMemberID(c *gin.Context) string {
	return c.GetString("member_id")
}

// GetTeamID returns the acting member's team id set by AuthMiddleware.
func GetTeamID(c *gin.Context) string {
	return c.GetString("team_id")
}

// GetRole returns the acting member's role set by AuthMiddleware.
func GetRole(c *gin.Context) string {
	return c.GetString("role")
}
