package gallery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/photoapp/internal/metrics"
	"github.com/hitoshi/photoapp/internal/model"
)

// LocalPart はメールアドレスの最初の"@"より前を小文字で返す。
// "@"を含まない場合は文字列全体を小文字にして返す。
func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return strings.ToLower(local)
}

// MatchUser はディレクトリの並び順で最初に一致したユーザーを返す。
// メールアドレスまたはユーザー名がローカル部を含めば一致とみなす。
// 一致しない場合は先頭のユーザーを返し、matchedはfalseになる。
// usersが空の場合はnilを返す。
func MatchUser(users []model.DirectoryUser, email string) (*model.DirectoryUser, bool) {
	if len(users) == 0 {
		return nil, false
	}

	local := LocalPart(email)
	for i := range users {
		u := &users[i]
		if strings.Contains(strings.ToLower(u.Email), local) ||
			strings.Contains(strings.ToLower(u.Username), local) {
			return u, true
		}
	}

	return &users[0], false
}

// ResolveUser はセッションのメールアドレスに対応するディレクトリユーザーを返す。
// ディレクトリが空の場合のみErrUserNotFoundを返す。
func (s *Service) ResolveUser(ctx context.Context, email string) (*model.DirectoryUser, error) {
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	user, matched := MatchUser(users, email)
	switch {
	case user == nil:
		s.metrics.RecordResolution(metrics.ResolutionEmpty)
		s.logger.Warn("ディレクトリにユーザーが存在しません")
		return nil, model.NewUserNotFoundError()
	case !matched:
		// 一致しない場合も先頭ユーザーとして扱う（既存の挙動）
		s.metrics.RecordResolution(metrics.ResolutionFallback)
		s.logger.Warn("メールアドレスに一致するユーザーがないため先頭ユーザーを使用します",
			slog.String("local_part", LocalPart(email)),
			slog.Int("directory_user_id", user.ID),
		)
	default:
		s.metrics.RecordResolution(metrics.ResolutionMatched)
	}

	return user, nil
}
