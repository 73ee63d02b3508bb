package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub-dev/taskhub/internal/apperrors"
	"github.com/taskhub-dev/taskhub/internal/directory"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/policy"
	"github.com/taskhub-dev/taskhub/internal/repository"
	"github.com/taskhub-dev/taskhub/internal/types"
)

const DefaultListLimit = 10

// Notifier delivers assignment notifications. Delivery is fire-and-forget:
// a returned error is logged by the caller, never surfaced to the request.
type Notifier interface {
	Send(to, subject, html string) error
}

// TaskService orchestrates task CRUD: it resolves assignee emails to user
// identifiers and back, enforces the access policy on every read and
// mutation, and dispatches assignment notifications.
type TaskService struct {
	store    repository.TaskStore
	dir      directory.Directory
	notifier Notifier

	now   func() time.Time
	newID func() uuid.UUID
}

func NewTaskService(store repository.TaskStore, dir directory.Directory, notifier Notifier) *TaskService {
	return &TaskService{
		store:    store,
		dir:      dir,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.New,
	}
}

type CreateTaskInput struct {
	Title         string
	Description   string
	Status        string
	Priority      string
	DueDate       time.Time
	AssigneeEmail string
}

// TaskPatch carries a partial update. Nil fields are left untouched.
// A non-nil AssigneeEmail pointing at an empty string clears the assignee.
type TaskPatch struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	DueDate       *time.Time
	AssigneeEmail *string
}

type ListTasksInput struct {
	Status        string
	Priority      string
	AssigneeEmail string
	Limit         int
	Offset        int
}

func (s *TaskService) Create(input CreateTaskInput, requester policy.Principal) (*types.TaskResponse, error) {
	var assignedTo *uuid.UUID

	if input.AssigneeEmail != "" {
		user, err := s.dir.ResolveByEmail(input.AssigneeEmail)

		if err != nil {
			return nil, apperrors.Storage(err)
		}

		if user == nil {
			return nil, apperrors.NewValidation("User with email %s not found", input.AssigneeEmail)
		}

		assignedTo = &user.ID
	}

	if input.Status == "" {
		input.Status = models.StatusPending
	}

	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}

	now := s.now()

	task := &models.Task{
		ID:          s.newID(),
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CreatedBy:   requester.ID,
		AssignedTo:  assignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Insert(task); err != nil {
		return nil, apperrors.Storage(err)
	}

	if assignedTo != nil {
		s.notifyAssignment(task)
	}

	return s.render(task), nil
}

func (s *TaskService) List(input ListTasksInput, requester policy.Principal) ([]types.TaskResponse, error) {
	filter := repository.TaskFilter{
		Status:   input.Status,
		Priority: input.Priority,
	}

	if !requester.IsAdmin() {
		id := requester.ID
		filter.VisibleTo = &id
	}

	if input.AssigneeEmail != "" {
		user, err := s.dir.ResolveByEmail(input.AssigneeEmail)

		if err != nil {
			return nil, apperrors.Storage(err)
		}

		// An unknown assignee email is a benign filter miss, not an error.
		if user == nil {
			return []types.TaskResponse{}, nil
		}

		filter.AssignedTo = &user.ID
	}

	limit := input.Limit

	if limit <= 0 {
		limit = DefaultListLimit
	}

	tasks, err := s.store.FindMany(filter, limit, input.Offset)

	if err != nil {
		return nil, apperrors.Storage(err)
	}

	response := make([]types.TaskResponse, 0, len(tasks))

	for i := range tasks {
		response = append(response, *s.render(&tasks[i]))
	}

	return response, nil
}

func (s *TaskService) Get(id uuid.UUID, requester policy.Principal) (*types.TaskResponse, error) {
	task, err := s.store.FindByID(id)

	if err != nil {
		return nil, apperrors.Storage(err)
	}

	if task == nil {
		return nil, apperrors.ErrTaskNotFound
	}

	if !policy.Allowed(requester, policy.ActionRead, task) {
		return nil, apperrors.ErrForbidden
	}

	return s.render(task), nil
}

func (s *TaskService) Update(id uuid.UUID, patch TaskPatch, requester policy.Principal) (*types.TaskResponse, error) {
	task, err := s.store.FindByID(id)

	if err != nil {
		return nil, apperrors.Storage(err)
	}

	if task == nil {
		return nil, apperrors.ErrTaskNotFound
	}

	if !policy.Allowed(requester, policy.ActionUpdate, task) {
		return nil, apperrors.ErrForbidden
	}

	oldAssignee := task.AssignedTo

	if patch.Title != nil {
		task.Title = *patch.Title
	}

	if patch.Description != nil {
		task.Description = *patch.Description
	}

	if patch.Status != nil {
		task.Status = *patch.Status
	}

	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}

	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}

	if patch.AssigneeEmail != nil {
		if *patch.AssigneeEmail == "" {
			task.AssignedTo = nil
		} else {
			user, err := s.dir.ResolveByEmail(*patch.AssigneeEmail)

			if err != nil {
				return nil, apperrors.Storage(err)
			}

			if user == nil {
				return nil, apperrors.NewValidation("User with email %s not found", *patch.AssigneeEmail)
			}

			task.AssignedTo = &user.ID
		}
	}

	task.UpdatedAt = s.now()

	if err := s.store.Update(task); err != nil {
		return nil, apperrors.Storage(err)
	}

	if patch.AssigneeEmail != nil && task.AssignedTo != nil {
		if oldAssignee == nil || *oldAssignee != *task.AssignedTo {
			s.notifyAssignment(task)
		}
	}

	return s.render(task), nil
}

func (s *TaskService) Delete(id uuid.UUID, requester policy.Principal) error {
	task, err := s.store.FindByID(id)

	if err != nil {
		return apperrors.Storage(err)
	}

	if task == nil {
		return apperrors.ErrTaskNotFound
	}

	if !policy.Allowed(requester, policy.ActionDelete, task) {
		return apperrors.ErrForbidden
	}

	if err := s.store.Delete(task); err != nil {
		return apperrors.Storage(err)
	}

	return nil
}

// render builds the external task shape, resolving the assignee identifier
// back to email and display name. A lookup is performed per task so the
// rendered contact info is never stale; an assignee that no longer resolves
// renders as absent rather than erroring.
func (s *TaskService) render(task *models.Task) *types.TaskResponse {
	response := &types.TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate.Format(types.DateLayout),
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if task.AssignedTo == nil {
		return response
	}

	user, err := s.dir.ResolveByID(*task.AssignedTo)

	if err != nil {
		log.Printf("Failed to resolve assignee %s: %v", *task.AssignedTo, err)
		return response
	}

	if user != nil {
		response.AssignedTo = &user.Email
		response.AssignedToName = &user.FirstName
	}

	return response
}

// notifyAssignment emails the assignee about the task. A user missing at
// notification time is a silent no-op, and a delivery failure is logged
// and discarded; neither ever fails the task mutation.
func (s *TaskService) notifyAssignment(task *models.Task) {
	user, err := s.dir.ResolveByID(*task.AssignedTo)

	if err != nil {
		log.Printf("Failed to resolve assignee %s for notification: %v", *task.AssignedTo, err)
		return
	}

	if user == nil {
		return
	}

	html := fmt.Sprintf(`
	<h2>New Task Assigned</h2>
	<p>Hello %s,</p>
	<p>You have been assigned a new task:</p>
	<ul>
		<li><b>Title:</b> %s</li>
		<li><b>Due Date:</b> %s</li>
		<li><b>Status:</b> %s</li>
	</ul>
	`, user.FirstName, task.Title, task.DueDate.Format(types.DateLayout), task.Status)

	if err := s.notifier.Send(user.Email, "You have been assigned a task", html); err != nil {
		log.Printf("Failed to send assignment email to %s: %v", user.Email, err)
	}
}
