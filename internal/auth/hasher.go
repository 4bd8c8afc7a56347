package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptの入力上限バイト数。これを超える部分は黙って切り捨てられるため受け付けない。
const maxPasswordBytes = 72

var (
	// ErrEmptyPassword は空のパスワードをハッシュ化しようとした場合に返される。
	ErrEmptyPassword = errors.New("password cannot be empty")
	// ErrPasswordTooLong はbcryptの上限を超えるパスワードをハッシュ化しようとした場合に返される。
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// PasswordHasher はパスワードのハッシュ化と照合を提供する。
type PasswordHasher interface {
	// Hash はソルト付きの一方向ハッシュを生成する。同じ入力でも毎回異なる値になる。
	Hash(password string) (string, error)

	// Verify はパスワードがハッシュと一致するかを返す。
	// ハッシュが不正な形式の場合もfalseを返す。
	Verify(password, hash string) bool
}

// BcryptHasher はbcryptを使用したPasswordHasherの実装。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は指定コストのBcryptHasherを生成する。
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash はbcryptダイジェストを生成する。
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify はパスワードとbcryptダイジェストを照合する。
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var _ PasswordHasher = (*BcryptHasher)(nil)
