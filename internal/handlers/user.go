package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/types"
	"gorm.io/gorm"
)

func ListUsers(ctx *gin.Context) {
	var users []models.User

	if err := db.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, userResponse(user))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetUser(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Param("user_id"))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User

	if err := db.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{
				"message":    "User not found",
				"error_code": "user_not_found",
			})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, userResponse(user))
}
