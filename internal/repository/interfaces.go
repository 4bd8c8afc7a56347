// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/todoman/internal/model"
)

// ErrDuplicateEmail は同一メールアドレスのユーザーが既に存在する場合に返される。
// 一意インデックス違反から変換されるため、同時登録の競合でも一方のみが成功する。
var ErrDuplicateEmail = errors.New("email already exists")

// ErrOwnerNotFound はタスクの所有者となるユーザーが存在しない場合に返される。
// 外部キー違反から変換される。
var ErrOwnerNotFound = errors.New("task owner does not exist")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// Create はタスクを作成する。
	// 所有者のユーザーが存在しない場合はErrOwnerNotFoundを返す。
	Create(ctx context.Context, task *model.Task) error

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// ListByUserID はユーザーのタスク一覧をcreated_at昇順、id昇順で返す。
	// 0件の場合は空スライスを返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Task, error)

	// DeleteByIDAndUserID はIDと所有者が一致するタスクを1件削除する。
	// 削除対象が存在しなかった場合はfalseを返す。
	DeleteByIDAndUserID(ctx context.Context, id, userID string) (bool, error)
}
