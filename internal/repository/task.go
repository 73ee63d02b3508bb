// Package repository provides persistence for task records.
package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskhub-dev/taskhub/internal/models"
)

// TaskFilter narrows FindMany. Zero-valued fields are ignored.
type TaskFilter struct {
	Status   string
	Priority string

	// AssignedTo matches tasks assigned to the given user.
	AssignedTo *uuid.UUID

	// VisibleTo restricts the result to tasks the given user created or
	// is assigned to. Left nil for admins, who see everything.
	VisibleTo *uuid.UUID
}

type TaskStore interface {
	Insert(task *models.Task) error
	// FindByID returns (nil, nil) when no task matches.
	FindByID(id uuid.UUID) (*models.Task, error)
	FindMany(filter TaskFilter, limit, offset int) ([]models.Task, error)
	Update(task *models.Task) error
	Delete(task *models.Task) error
}

type GormTaskStore struct {
	db *gorm.DB
}

func NewGormTaskStore(db *gorm.DB) *GormTaskStore {
	return &GormTaskStore{db: db}
}

func (s *GormTaskStore) Insert(task *models.Task) error {
	return s.db.Create(task).Error
}

func (s *GormTaskStore) FindByID(id uuid.UUID) (*models.Task, error) {
	var task models.Task

	err := s.db.Where("id = ?", id).First(&task).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *GormTaskStore) FindMany(filter TaskFilter, limit, offset int) ([]models.Task, error) {
	query := s.db.Model(&models.Task{})

	if filter.VisibleTo != nil {
		query = query.Where("created_by = ? OR assigned_to = ?", *filter.VisibleTo, *filter.VisibleTo)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}

	var tasks []models.Task

	// Newest first; id breaks ties so pagination stays deterministic for
	// rows created in the same instant.
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&tasks).Error

	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (s *GormTaskStore) Update(task *models.Task) error {
	return s.db.Save(task).Error
}

func (s *GormTaskStore) Delete(task *models.Task) error {
	return s.db.Delete(task).Error
}
