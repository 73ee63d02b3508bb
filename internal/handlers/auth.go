package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/types"
	"github.com/taskhub-dev/taskhub/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstname" binding:"required"`
	LastName  string `json:"lastname" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

var (
	Domain = os.Getenv("DOMAIN")
)

func RegisterUser(ctx *gin.Context) {
	var req RegisterUserRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var existingUser models.User

	err := db.DB.Where("email = ?", req.Email).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusForbidden, gin.H{
			"message":    "User with email already exists",
			"error_code": "user_exists",
		})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Everyone registers as a regular user; admins are provisioned out of
	// band, never through this endpoint.
	newUser := models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
		PasswordHash: string(passwordHash),
	}

	if err := db.DB.Create(&newUser).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user": userResponse(newUser),
	})
}

func LoginUser(ctx *gin.Context) {
	var req LoginUserRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var existingUser models.User

	err := db.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&existingUser).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"message":    "Invalid Email Or Password",
				"error_code": "invalid_email_or_password",
			})
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash), []byte(req.Password))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"message":    "Invalid Email Or Password",
			"error_code": "invalid_email_or_password",
		})
		return
	}

	token, err := auth.GenerateJWT(existingUser.ID, existingUser.Email, existingUser.Role)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Domain:   Domain,
		MaxAge:   int(auth.TokenTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user":         userResponse(existingUser),
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.Where("id = ?", currentUser.ID).First(&user).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

func LogoutUser(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")

	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		if token, err := auth.VerifyJWT(parts[1]); err == nil {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				revokeClaims(ctx, claims)
			}
		}
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		Domain:   Domain,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func revokeClaims(ctx *gin.Context, claims jwt.MapClaims) {
	jti, ok := claims["jti"].(string)

	if !ok {
		return
	}

	exp, ok := claims["exp"].(float64)

	if !ok {
		return
	}

	ttl := time.Until(time.Unix(int64(exp), 0))

	if err := auth.RevokeToken(ctx.Request.Context(), jti, ttl); err != nil {
		log.Printf("Failed to revoke token: %v", err)
	}
}

func userResponse(user models.User) types.UserResponse {
	return types.UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
