package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/task"
)

// mockTaskService はTaskServiceInterfaceのモック実装。
type mockTaskService struct {
	createFn func(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error)
	listFn   func(ctx context.Context, userID string) ([]*model.Task, error)
	deleteFn func(ctx context.Context, userID, taskID string) error
}

func (m *mockTaskService) Create(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error) {
	return m.createFn(ctx, userID, in)
}

func (m *mockTaskService) List(ctx context.Context, userID string) ([]*model.Task, error) {
	return m.listFn(ctx, userID)
}

func (m *mockTaskService) Delete(ctx context.Context, userID, taskID string) error {
	return m.deleteFn(ctx, userID, taskID)
}

// --- POST /api/task ---

func TestTaskHandler_Create_Success(t *testing.T) {
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := &mockTaskService{
		createFn: func(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return &model.Task{ID: "task-1", UserID: userID, Title: in.Title, Description: in.Description, CreatedAt: createdAt}, nil
		},
	}
	h := NewTaskHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/task", strings.NewReader(`{"title":"buy milk","description":"2L"}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp taskEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Task.ID != "task-1" || resp.Task.Title != "buy milk" || resp.Task.Owner != "user-123" {
		t.Errorf("unexpected task: %+v", resp.Task)
	}
	if !resp.Task.CreatedAt.Equal(createdAt) {
		t.Errorf("created_at = %v, want %v", resp.Task.CreatedAt, createdAt)
	}
}

// TestTaskHandler_Create_OwnerFromBodyIsIgnored はボディに所有者を含めても認証済みユーザーが所有者になることを検証する。
func TestTaskHandler_Create_OwnerFromBodyIsIgnored(t *testing.T) {
	svc := &mockTaskService{
		createFn: func(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error) {
			return &model.Task{ID: "task-1", UserID: userID, Title: in.Title}, nil
		},
	}
	h := NewTaskHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/task", strings.NewReader(`{"title":"x","owner":"someone-else"}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()
	h.Create(w, req)

	var resp taskEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Task.Owner != "user-123" {
		t.Errorf("owner = %q, want %q", resp.Task.Owner, "user-123")
	}
}

func TestTaskHandler_Create_ValidationError(t *testing.T) {
	svc := &mockTaskService{
		createFn: func(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error) {
			return nil, model.NewValidationError("title is required")
		},
	}
	h := NewTaskHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/task", strings.NewReader(`{"title":"  "}`)), "user-123")
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeValidation {
		t.Errorf("code = %q, want %q", got, model.ErrCodeValidation)
	}
}

func TestTaskHandler_Create_NoUserID(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{})

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/task", strings.NewReader(`{"title":"x"}`)))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- GET /api/tasks ---

func TestTaskHandler_List_EmptyIsArray(t *testing.T) {
	svc := &mockTaskService{
		listFn: func(ctx context.Context, userID string) ([]*model.Task, error) {
			return nil, nil
		},
	}
	h := NewTaskHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), "user-123")
	w := httptest.NewRecorder()
	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"tasks":[]}` {
		t.Errorf("body = %s, want %s", got, `{"tasks":[]}`)
	}
}

func TestTaskHandler_List_PreservesOrder(t *testing.T) {
	svc := &mockTaskService{
		listFn: func(ctx context.Context, userID string) ([]*model.Task, error) {
			return []*model.Task{
				{ID: "task-1", UserID: userID, Title: "first"},
				{ID: "task-2", UserID: userID, Title: "second"},
			}, nil
		},
	}
	h := NewTaskHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), "user-123")
	w := httptest.NewRecorder()
	h.List(w, req)

	var resp taskListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(resp.Tasks) != 2 || resp.Tasks[0].ID != "task-1" || resp.Tasks[1].ID != "task-2" {
		t.Errorf("unexpected tasks: %+v", resp.Tasks)
	}
}

func TestTaskHandler_List_InternalError(t *testing.T) {
	svc := &mockTaskService{
		listFn: func(ctx context.Context, userID string) ([]*model.Task, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewTaskHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), "user-123")
	w := httptest.NewRecorder()
	h.List(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// --- DELETE /api/task/{id} ---

func TestTaskHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusNoContent},
		{"not found", model.NewTaskNotFoundError("task-1"), http.StatusNotFound},
		{"forbidden", model.NewForbiddenError(), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTaskID string
			svc := &mockTaskService{
				deleteFn: func(ctx context.Context, userID, taskID string) error {
					gotTaskID = taskID
					return tt.err
				},
			}
			h := NewTaskHandler(svc)

			req := httptest.NewRequest(http.MethodDelete, "/api/task/task-1", nil)
			req = withChiURLParam(req, "id", "task-1")
			req = withUserID(req, "user-123")
			w := httptest.NewRecorder()

			h.Delete(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if gotTaskID != "task-1" {
				t.Errorf("taskID = %q, want %q", gotTaskID, "task-1")
			}
			if tt.err == nil && w.Body.Len() != 0 {
				t.Errorf("204 response should have empty body, got %q", w.Body.String())
			}
		})
	}
}
