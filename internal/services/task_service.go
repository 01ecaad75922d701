package services

import (
	"context"
	"strings"
	"time"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// TaskService defines the interface for task-related business logic. Every
// operation is scoped to the owning user; a task belonging to someone else is
// indistinguishable from one that does not exist.
type TaskService interface {
	Create(ctx context.Context, ownerID int64, task *models.Task) (*models.Task, error)
	List(ctx context.Context, ownerID int64, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, ownerID, id int64, upd models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type taskService struct {
	repo repositories.TaskRepository
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository) TaskService {
	return &taskService{repo: repo}
}

func (s *taskService) Create(ctx context.Context, ownerID int64, task *models.Task) (*models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, apperrors.Validation("title", "is required")
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	} else if !task.Status.Valid() {
		return nil, apperrors.Validation("status", "must be one of pending, in-progress, completed")
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	} else if !task.Priority.Valid() {
		return nil, apperrors.Validation("priority", "must be one of low, medium, high")
	}

	now := time.Now()
	task.OwnerID = ownerID
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, ownerID int64, filter models.TaskFilter) ([]models.Task, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.Validation("status", "must be one of pending, in-progress, completed")
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, apperrors.Validation("priority", "must be one of low, medium, high")
	}
	return s.repo.FindAll(ctx, ownerID, filter)
}

func (s *taskService) Update(ctx context.Context, ownerID, id int64, upd models.TaskUpdate) (*models.Task, error) {
	current, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperrors.Validation("title", "cannot be empty")
		}
		current.Title = title
	}
	if upd.Description != nil {
		current.Description = *upd.Description
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, apperrors.Validation("status", "must be one of pending, in-progress, completed")
		}
		current.Status = *upd.Status
	}
	if upd.Priority != nil {
		if !upd.Priority.Valid() {
			return nil, apperrors.Validation("priority", "must be one of low, medium, high")
		}
		current.Priority = *upd.Priority
	}

	current.UpdatedAt = time.Now()

	// last write wins; no version token by design
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *taskService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}
