// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, gallery, system
	Action   string // ユーザー向け対処方法

	kind  error
	cause error // ログ用の内部原因。レスポンスには含めない
}

// Error はerrorインターフェースを実装する。原因がある場合は末尾に付ける。
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap はエラー分類の番兵エラーと内部原因を返す。errors.Isでの判定に使う。
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// エラー分類の番兵エラー。
var (
	// ErrDirectoryUnavailable はディレクトリAPIへの通信失敗（ネットワーク、5xx、デコード失敗）。
	ErrDirectoryUnavailable = errors.New("directory unavailable")
	// ErrUserNotFound はディレクトリにユーザーが1件も存在しない状態。
	ErrUserNotFound = errors.New("directory user not found")
	// ErrAlbumAccessDenied は指定アルバムが利用者の所有アルバムに含まれない状態。
	ErrAlbumAccessDenied = errors.New("album not found or access denied")
)

// 定義済みエラーコード
const (
	ErrCodeDirectoryUnavailable = "DIRECTORY_UNAVAILABLE"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeAlbumAccessDenied    = "ALBUM_ACCESS_DENIED"
	ErrCodeInvalidAlbumID       = "INVALID_ALBUM_ID"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
)

// NewDirectoryUnavailableError はディレクトリAPI通信失敗エラーを生成する。
// resourceは画面上の対象（users, albums, photos）を表す。
// causeはErrorとUnwrapからのみ参照でき、Messageには含めない。
func NewDirectoryUnavailableError(resource string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeDirectoryUnavailable,
		Message:  fmt.Sprintf("Error loading %s", resource),
		Category: "gallery",
		Action:   "しばらく待ってから再度お試しください。",
		kind:     ErrDirectoryUnavailable,
		cause:    cause,
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "ログインし直してください。",
		kind:     ErrUserNotFound,
	}
}

// NewAlbumAccessDeniedError はアルバムが存在しないか所有者でない場合のエラーを生成する。
// 存在しないアルバムと他人のアルバムは区別しない。
func NewAlbumAccessDeniedError(albumID int) *APIError {
	return &APIError{
		Code:     ErrCodeAlbumAccessDenied,
		Message:  fmt.Sprintf("Album not found or access denied: %d", albumID),
		Category: "gallery",
		Action:   "アルバム一覧から表示するアルバムを選択してください。",
		kind:     ErrAlbumAccessDenied,
	}
}

// NewInvalidAlbumIDError はアルバムIDが整数として解釈できない場合のエラーを生成する。
func NewInvalidAlbumIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAlbumID,
		Message:  fmt.Sprintf("無効なアルバムIDです: %s", raw),
		Category: "validation",
		Action:   "アルバムIDには正の整数を指定してください。",
	}
}

// NewUnauthorizedError は未認証リクエストのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Please log in to view your gallery.",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
