package services

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/repository"
)

type fakeDirectory struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newFakeDirectory(users ...*models.User) *fakeDirectory {
	dir := &fakeDirectory{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
	for _, user := range users {
		dir.byEmail[user.Email] = user
		dir.byID[user.ID] = user
	}
	return dir
}

func (d *fakeDirectory) ResolveByEmail(email string) (*models.User, error) {
	return d.byEmail[email], nil
}

func (d *fakeDirectory) ResolveByID(id uuid.UUID) (*models.User, error) {
	return d.byID[id], nil
}

type sentMail struct {
	to      string
	subject string
	html    string
}

type fakeNotifier struct {
	sends []sentMail
}

func (n *fakeNotifier) Send(to, subject, html string) error {
	n.sends = append(n.sends, sentMail{to: to, subject: subject, html: html})
	return nil
}

type fakeTaskStore struct {
	tasks map[uuid.UUID]models.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]models.Task)}
}

func (s *fakeTaskStore) Insert(task *models.Task) error {
	s.tasks[task.ID] = *task
	return nil
}

func (s *fakeTaskStore) FindByID(id uuid.UUID) (*models.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

func (s *fakeTaskStore) FindMany(filter repository.TaskFilter, limit, offset int) ([]models.Task, error) {
	var matched []models.Task

	for _, task := range s.tasks {
		if filter.VisibleTo != nil {
			visible := task.CreatedBy == *filter.VisibleTo ||
				(task.AssignedTo != nil && *task.AssignedTo == *filter.VisibleTo)
			if !visible {
				continue
			}
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		if filter.AssignedTo != nil {
			if task.AssignedTo == nil || *task.AssignedTo != *filter.AssignedTo {
				continue
			}
		}
		matched = append(matched, task)
	}

	// Mirror the contract ordering: created_at DESC, id DESC.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return bytes.Compare(matched[i].ID[:], matched[j].ID[:]) > 0
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *fakeTaskStore) Update(task *models.Task) error {
	s.tasks[task.ID] = *task
	return nil
}

func (s *fakeTaskStore) Delete(task *models.Task) error {
	delete(s.tasks, task.ID)
	return nil
}
