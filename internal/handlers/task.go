package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskhub-dev/taskhub/internal/apperrors"
	"github.com/taskhub-dev/taskhub/internal/services"
	"github.com/taskhub-dev/taskhub/internal/utils"
)

var taskService *services.TaskService

// InitTaskService wires the task service once the database is connected.
func InitTaskService(svc *services.TaskService) {
	taskService = svc
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     string `json:"due_date" binding:"required"`
	AssignedTo  string `json:"assigned_to" binding:"omitempty,email"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date"`
	// An empty string clears the assignee; omitting the field leaves it
	// unchanged.
	AssignedTo *string `json:"assigned_to" binding:"omitempty,email"`
}

func CreateTask(ctx *gin.Context) {
	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be formatted as YYYY-MM-DD"})
		return
	}

	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := taskService.Create(services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		DueDate:       dueDate,
		AssigneeEmail: req.AssignedTo,
	}, principal)

	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

func ListTasks(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	tasks, err := taskService.List(services.ListTasksInput{
		Status:        ctx.Query("status"),
		Priority:      ctx.Query("priority"),
		AssigneeEmail: ctx.Query("assigned_to"),
		Limit:         limit,
		Offset:        offset,
	}, principal)

	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func GetTask(ctx *gin.Context) {
	taskID, err := uuid.Parse(ctx.Param("task_id"))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := taskService.Get(taskID, principal)

	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func UpdateTask(ctx *gin.Context) {
	taskID, err := uuid.Parse(ctx.Param("task_id"))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var req UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := services.TaskPatch{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		AssigneeEmail: req.AssignedTo,
	}

	if req.DueDate != nil {
		dueDate, err := time.Parse("2006-01-02", *req.DueDate)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be formatted as YYYY-MM-DD"})
			return
		}

		patch.DueDate = &dueDate
	}

	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := taskService.Update(taskID, patch, principal)

	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func DeleteTask(ctx *gin.Context) {
	taskID, err := uuid.Parse(ctx.Param("task_id"))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := taskService.Delete(taskID, principal); err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// respondTaskError maps the service failure taxonomy to its stable
// status/error-code pair.
func respondTaskError(ctx *gin.Context, err error) {
	var validationErr *apperrors.ValidationError

	switch {
	case errors.Is(err, apperrors.ErrTaskNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{
			"message":    "Task not found",
			"error_code": "task_not_found",
		})
	case errors.Is(err, apperrors.ErrUserNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{
			"message":    "User not found",
			"error_code": "user_not_found",
		})
	case errors.Is(err, apperrors.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{
			"message":    "You are not authorized to perform this action",
			"error_code": "insufficient_permission",
		})
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusBadRequest, gin.H{
			"message":    validationErr.Detail,
			"error_code": "user_not_found",
		})
	default:
		log.Printf("Task operation failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
