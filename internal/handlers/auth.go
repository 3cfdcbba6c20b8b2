package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/utils"
)

// JWTAuthMiddleware provides authentication using service-issued tokens
type JWTAuthMiddleware struct {
	jwtManager *utils.JWTManager
}

func NewJWTAuthMiddleware(jwtManager *utils.JWTManager) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{jwtManager: jwtManager}
}

// AuthMiddleware returns a Gin middleware function that validates the
// Authorization header and loads the caller's identity into the context
func (am *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "authorization header missing",
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := am.jwtManager.ValidateToken(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("invalid token: %v", err),
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("user_role", models.UserRole(claims.Role))

		c.Next()
	}
}

// RequireRoleMiddleware checks if the caller has one of the required roles
func (am *JWTAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "user role not found in context",
			})
			c.Abort()
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "invalid user role format",
			})
			c.Abort()
			return
		}

		for _, requiredRole := range requiredRoles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
		c.Abort()
	}
}

// GetUserIDFromContext extracts the authenticated user ID from the Gin context
func GetUserIDFromContext(c *gin.Context) (uint, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(uint)
	if !ok {
		return 0, fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts the authenticated user's role from the Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
