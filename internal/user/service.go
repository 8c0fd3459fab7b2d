// Package user はログインアカウントの管理を提供する。
// ギャラリーのデータはディレクトリ側にあるため、退会で消えるのは認証用の記録のみ。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/photoapp/internal/model"
)

// AccountStore はアカウントの取得と削除のインターフェース。
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	DeleteByID(ctx context.Context, id string) error
}

// SessionRevoker はユーザーの全セッションを失効させるインターフェース。
type SessionRevoker interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はアカウント管理のサービス層。
type Service struct {
	accounts AccountStore
	sessions SessionRevoker
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accounts AccountStore, sessions SessionRevoker, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
		logger:   logger,
	}
}

// Withdraw は退会処理を実行する。
// 削除順序: sessions → user（+ CASCADE: identities）
// RedisのセッションはCASCADEの対象外なので明示的に削除する。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	s.logger.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. セッションを削除
	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	// 2. ユーザーを削除（identitiesはCASCADE削除）
	if err := s.accounts.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	s.logger.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
