package model

import "time"

// Task はユーザーが所有するToDoタスクを表す。
// UserIDは作成時に認証済みユーザーから設定され、以後変更されない。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	CreatedAt   time.Time
}
