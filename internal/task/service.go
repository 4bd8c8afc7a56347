// Package task はToDoタスクの作成・一覧・削除のドメインロジックを提供する。
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// CreateInput はタスク作成の入力。
type CreateInput struct {
	Title       string
	Description string
}

// Service はタスク管理のサービス層。
// すべての操作は認証済みユーザーIDを受け取り、そのユーザーのタスクのみを対象とする。
type Service struct {
	taskRepo repository.TaskRepository
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		taskRepo: taskRepo,
		metrics:  mc,
		now:      time.Now,
	}
}

// Create はタスクを作成する。所有者は呼び出し元のユーザーになる。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, model.NewValidationError("title is required")
	}

	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		if errors.Is(err, repository.ErrOwnerNotFound) {
			// トークン発行後にユーザーが削除された
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	s.metrics.RecordTaskCreated()
	slog.Info("task created",
		slog.String("user_id", userID),
		slog.String("task_id", task.ID),
	)

	return task, nil
}

// List はユーザーのタスクを作成日時の古い順に返す。0件の場合は空スライスを返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	return tasks, nil
}

// Delete はユーザーが所有するタスクを削除する。
// 存在しない場合はTASK_NOT_FOUND、他ユーザーのタスクの場合はFORBIDDENを返す。
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	parsed, err := uuid.Parse(taskID)
	if err != nil {
		return model.NewTaskNotFoundError(taskID)
	}
	// urn:uuid:や{}付きの表記も受け付けるため、ストアには正規形で渡す
	id := parsed.String()

	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return model.NewTaskNotFoundError(taskID)
	}
	if task.UserID != userID {
		slog.Warn("task delete forbidden",
			slog.String("user_id", userID),
			slog.String("task_id", id),
		)
		return model.NewForbiddenError()
	}

	deleted, err := s.taskRepo.DeleteByIDAndUserID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		// 取得後に別リクエストで削除された
		return model.NewTaskNotFoundError(taskID)
	}

	s.metrics.RecordTaskDeleted()
	slog.Info("task deleted",
		slog.String("user_id", userID),
		slog.String("task_id", id),
	)

	return nil
}
