package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// authMiddleware validates the bearer token and loads the owning user into
// the request context
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
		claims, err := validateToken(s.jwtSecret, tokenString)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		var user User
		if err := s.db.First(&user, claims.Sub).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set("user", &user)
		c.Next()
	}
}

// currentUser returns the user loaded by authMiddleware
func currentUser(c *gin.Context) *User {
	user, _ := c.MustGet("user").(*User)
	return user
}
