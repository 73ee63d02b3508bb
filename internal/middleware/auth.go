package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/types"
)

type AuthenticatedUser struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

func AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})

			return
		}

		tokenString := parts[1]

		token, err := auth.VerifyJWT(tokenString)

		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		if jti, ok := claims["jti"].(string); ok && auth.IsTokenRevoked(ctx.Request.Context(), jti) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}

		userIDString, ok := claims["user_id"].(string)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token claims"})
			return
		}

		userID, err := uuid.Parse(userIDString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token claims"})
			return
		}

		var user models.User

		if err := db.DB.Where("id = ?", userID).First(&user).Error; err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:        user.ID,
			FirstName: user.FirstName,
			Email:     user.Email,
			Role:      user.Role,
		})
		ctx.Next()
	}
}

// RequireAdmin gates a route to admin principals. It must run after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		authenticatedUser, ok := user.(AuthenticatedUser)

		if !ok || authenticatedUser.Role != models.RoleAdmin {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message":    "You do not have permission to perform this action",
				"error_code": "insufficient_permission",
			})
			return
		}

		ctx.Next()
	}
}
