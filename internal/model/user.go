// Package model はドメインモデルを定義する。
package model

import "time"

// User はログイン済みアカウントを表す。
// ギャラリーのデータはディレクトリ側にあり、ここでは認証用の記録のみを保持する。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// Emailはセッション発行時点のアカウントのメールアドレス。
type Session struct {
	ID        string
	UserID    string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionIdentity は認証済みリクエストの利用者を表す。
// セッションミドルウェアが生成し、各ビューへ明示的に渡される。
type SessionIdentity struct {
	UserID string
	Email  string
}
