package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub-dev/taskhub/internal/apperrors"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/policy"
	"github.com/taskhub-dev/taskhub/internal/types"
)

var (
	alice = &models.User{
		ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Email:     "alice@example.com",
		FirstName: "Alice",
		Role:      models.RoleUser,
	}
	bob = &models.User{
		ID:        uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Email:     "bob@example.com",
		FirstName: "Bob",
		Role:      models.RoleUser,
	}
	carol = &models.User{
		ID:        uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		Email:     "carol@example.com",
		FirstName: "Carol",
		Role:      models.RoleUser,
	}
	root = &models.User{
		ID:        uuid.MustParse("44444444-4444-4444-4444-444444444444"),
		Email:     "root@example.com",
		FirstName: "Root",
		Role:      models.RoleAdmin,
	}
)

func asPrincipal(user *models.User) policy.Principal {
	return policy.Principal{ID: user.ID, Role: user.Role}
}

func newTestService(t *testing.T) (*TaskService, *fakeTaskStore, *fakeDirectory, *fakeNotifier) {
	t.Helper()

	store := newFakeTaskStore()
	dir := newFakeDirectory(alice, bob, carol, root)
	notifier := &fakeNotifier{}

	svc := NewTaskService(store, dir, notifier)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}

	return svc, store, dir, notifier
}

func dueDate() time.Time {
	return time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
}

func TestCreateTaskResolvesAssigneeEmail(t *testing.T) {
	svc, store, _, notifier := newTestService(t)

	task, err := svc.Create(CreateTaskInput{
		Title:         "Write report",
		Description:   "Quarterly numbers",
		DueDate:       dueDate(),
		AssigneeEmail: "bob@example.com",
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	stored, _ := store.FindByID(task.ID)
	if stored == nil {
		t.Fatal("expected task to be persisted")
	}
	if stored.AssignedTo == nil || *stored.AssignedTo != bob.ID {
		t.Fatalf("expected stored assignee %s, got %v", bob.ID, stored.AssignedTo)
	}
	if stored.CreatedBy != alice.ID {
		t.Fatalf("expected creator %s, got %s", alice.ID, stored.CreatedBy)
	}

	if task.AssignedTo == nil || *task.AssignedTo != "bob@example.com" {
		t.Fatalf("expected assigned_to rendered as email, got %v", task.AssignedTo)
	}
	if task.AssignedToName == nil || *task.AssignedToName != "Bob" {
		t.Fatalf("expected assigned_to_name Bob, got %v", task.AssignedToName)
	}

	if len(notifier.sends) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.sends))
	}
	if notifier.sends[0].to != "bob@example.com" {
		t.Fatalf("expected notification to bob@example.com, got %s", notifier.sends[0].to)
	}
}

func TestCreateTaskAppliesDefaults(t *testing.T) {
	svc, _, _, notifier := newTestService(t)

	task, err := svc.Create(CreateTaskInput{
		Title:   "Untriaged",
		DueDate: dueDate(),
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if task.Status != models.StatusPending {
		t.Fatalf("expected default status pending, got %q", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Fatalf("expected default priority medium, got %q", task.Priority)
	}
	if task.AssignedTo != nil {
		t.Fatalf("expected no assignee, got %v", *task.AssignedTo)
	}
	if len(notifier.sends) != 0 {
		t.Fatalf("expected no notification without an assignee, got %d", len(notifier.sends))
	}
}

func TestCreateTaskUnknownAssigneeFails(t *testing.T) {
	svc, store, _, notifier := newTestService(t)

	_, err := svc.Create(CreateTaskInput{
		Title:         "Orphan",
		DueDate:       dueDate(),
		AssigneeEmail: "ghost@example.com",
	}, asPrincipal(alice))

	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected nothing persisted, got %d tasks", len(store.tasks))
	}
	if len(notifier.sends) != 0 {
		t.Fatalf("expected no notification, got %d", len(notifier.sends))
	}
}

func TestGetTaskVisibility(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(CreateTaskInput{
		Title:         "Shared",
		DueDate:       dueDate(),
		AssigneeEmail: "bob@example.com",
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	for _, reader := range []*models.User{alice, bob, root} {
		if _, err := svc.Get(created.ID, asPrincipal(reader)); err != nil {
			t.Fatalf("expected %s to read the task, got %v", reader.FirstName, err)
		}
	}

	if _, err := svc.Get(created.ID, asPrincipal(carol)); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden for unrelated user, got %v", err)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if _, err := svc.Get(uuid.New(), asPrincipal(root)); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Fatalf("expected task not found, got %v", err)
	}
}

func TestAssigneeCannotUpdateOrDelete(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(CreateTaskInput{
		Title:         "Locked",
		DueDate:       dueDate(),
		AssigneeEmail: "bob@example.com",
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	status := models.StatusCompleted
	if _, err := svc.Update(created.ID, TaskPatch{Status: &status}, asPrincipal(bob)); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden update for assignee, got %v", err)
	}

	if err := svc.Delete(created.ID, asPrincipal(bob)); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden delete for assignee, got %v", err)
	}
}

func TestUpdateAppliesOnlyPatchedFields(t *testing.T) {
	svc, store, _, notifier := newTestService(t)

	created, err := svc.Create(CreateTaskInput{
		Title:       "Original title",
		Description: "Original description",
		Priority:    models.PriorityHigh,
		DueDate:     dueDate(),
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	later := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	title := "New title"
	updated, err := svc.Update(created.ID, TaskPatch{Title: &title}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("update task: %v", err)
	}

	if updated.Title != "New title" {
		t.Fatalf("expected patched title, got %q", updated.Title)
	}
	if updated.Description != "Original description" {
		t.Fatalf("expected description preserved, got %q", updated.Description)
	}
	if updated.Priority != models.PriorityHigh {
		t.Fatalf("expected priority preserved, got %q", updated.Priority)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at refreshed to %v, got %v", later, updated.UpdatedAt)
	}

	stored, _ := store.FindByID(created.ID)
	if stored.Title != "New title" {
		t.Fatalf("expected stored title updated, got %q", stored.Title)
	}
	if len(notifier.sends) != 0 {
		t.Fatalf("expected no notification for a non-assignee patch, got %d", len(notifier.sends))
	}
}

func TestUpdateAssigneeNotifiesOnce(t *testing.T) {
	svc, _, _, notifier := newTestService(t)

	created, err := svc.Create(CreateTaskInput{
		Title:   "Handoff",
		DueDate: dueDate(),
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	assignee := "carol@example.com"
	first, err := svc.Update(created.ID, TaskPatch{AssigneeEmail: &assignee}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if len(notifier.sends) != 1 {
		t.Fatalf("expected one notification after assignment, got %d", len(notifier.sends))
	}
	if notifier.sends[0].to != "carol@example.com" {
		t.Fatalf("expected notification to carol, got %s", notifier.sends[0].to)
	}

	// Replaying the identical patch must not notify again and must leave
	// the visible state unchanged.
	second, err := svc.Update(created.ID, TaskPatch{AssigneeEmail: &assignee}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("repeat update: %v", err)
	}
	if len(notifier.sends) != 1 {
		t.Fatalf("expected no second notification, got %d sends", len(notifier.sends))
	}
	if *first.AssignedTo != *second.AssignedTo || first.Status != second.Status || first.Title != second.Title {
		t.Fatal("expected identical visible state after replaying the patch")
	}
}

func TestUpdateClearAssignee(t *testing.T) {
	svc, store, _, notifier := newTestService(t)

	created, err := svc.Create(CreateTaskInput{
		Title:         "Release",
		DueDate:       dueDate(),
		AssigneeEmail: "bob@example.com",
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	notifier.sends = nil

	cleared := ""
	updated, err := svc.Update(created.ID, TaskPatch{AssigneeEmail: &cleared}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("update task: %v", err)
	}

	if updated.AssignedTo != nil {
		t.Fatalf("expected assignee cleared, got %v", *updated.AssignedTo)
	}
	stored, _ := store.FindByID(created.ID)
	if stored.AssignedTo != nil {
		t.Fatalf("expected stored assignee cleared, got %v", stored.AssignedTo)
	}
	if len(notifier.sends) != 0 {
		t.Fatalf("expected no notification when clearing, got %d", len(notifier.sends))
	}
}

func TestUpdateUnknownAssigneeFails(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(CreateTaskInput{
		Title:   "Stuck",
		DueDate: dueDate(),
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	ghost := "ghost@example.com"
	_, err = svc.Update(created.ID, TaskPatch{AssigneeEmail: &ghost}, asPrincipal(alice))

	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateMissingTask(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	title := "nothing"
	if _, err := svc.Update(uuid.New(), TaskPatch{Title: &title}, asPrincipal(root)); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Fatalf("expected task not found, got %v", err)
	}
}

func TestDeleteTaskThenGetNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(CreateTaskInput{
		Title:   "Ephemeral",
		DueDate: dueDate(),
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := svc.Delete(created.ID, asPrincipal(alice)); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	for _, reader := range []*models.User{alice, root} {
		if _, err := svc.Get(created.ID, asPrincipal(reader)); !errors.Is(err, apperrors.ErrTaskNotFound) {
			t.Fatalf("expected not found for %s after delete, got %v", reader.FirstName, err)
		}
	}
}

func TestAdminCanDeleteAnyTask(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(CreateTaskInput{
		Title:   "Doomed",
		DueDate: dueDate(),
	}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := svc.Delete(created.ID, asPrincipal(root)); err != nil {
		t.Fatalf("expected admin delete to succeed, got %v", err)
	}
}

func TestListScopesToCreatorOrAssignee(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	mustCreate(t, svc, alice, CreateTaskInput{Title: "Mine", DueDate: dueDate()})
	mustCreate(t, svc, carol, CreateTaskInput{Title: "Handed to alice", DueDate: dueDate(), AssigneeEmail: "alice@example.com"})
	mustCreate(t, svc, carol, CreateTaskInput{Title: "Private", DueDate: dueDate()})

	tasks, err := svc.List(ListTasksInput{}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 visible tasks for alice, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Title == "Private" {
			t.Fatal("alice must not see carol's private task")
		}
	}

	all, err := svc.List(ListTasksInput{}, asPrincipal(root))
	if err != nil {
		t.Fatalf("list tasks as admin: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected admin to see all 3 tasks, got %d", len(all))
	}
}

func TestListFilterAndPagination(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"oldest", "middle", "newest"} {
		created := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return created }
		mustCreate(t, svc, alice, CreateTaskInput{Title: title, DueDate: dueDate()})
	}

	tasks, err := svc.List(ListTasksInput{Status: models.StatusPending, Limit: 1, Offset: 0}, asPrincipal(root))
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected exactly 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "newest" {
		t.Fatalf("expected newest task first, got %q", tasks[0].Title)
	}
}

func TestListUnknownAssigneeFilterMatchesNothing(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	mustCreate(t, svc, alice, CreateTaskInput{Title: "Present", DueDate: dueDate()})

	tasks, err := svc.List(ListTasksInput{AssigneeEmail: "ghost@example.com"}, asPrincipal(root))
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty result for unknown assignee filter, got %d", len(tasks))
	}
}

func TestListRendersDeletedAssigneeAsAbsent(t *testing.T) {
	svc, _, dir, _ := newTestService(t)

	created := mustCreate(t, svc, alice, CreateTaskInput{
		Title:         "Orphaned",
		DueDate:       dueDate(),
		AssigneeEmail: "bob@example.com",
	})

	// Simulate the assignee being deleted after assignment.
	delete(dir.byEmail, bob.Email)
	delete(dir.byID, bob.ID)

	tasks, err := svc.List(ListTasksInput{}, asPrincipal(alice))
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected the task to still exist, got %d rows", len(tasks))
	}
	if tasks[0].ID != created.ID {
		t.Fatalf("expected task %s, got %s", created.ID, tasks[0].ID)
	}
	if tasks[0].AssignedTo != nil || tasks[0].AssignedToName != nil {
		t.Fatal("expected unresolvable assignee to render as absent")
	}
}

func mustCreate(t *testing.T, svc *TaskService, creator *models.User, input CreateTaskInput) *types.TaskResponse {
	t.Helper()

	task, err := svc.Create(input, asPrincipal(creator))
	if err != nil {
		t.Fatalf("create task %q: %v", input.Title, err)
	}
	return task
}
