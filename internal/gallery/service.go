// Package gallery はギャラリー画面のドメインロジックを提供する。
// 利用者の解決、アルバムと写真の集約、タイトル検索を行う。
package gallery

import (
	"context"
	"log/slog"

	"github.com/hitoshi/photoapp/internal/metrics"
	"github.com/hitoshi/photoapp/internal/model"
)

// DirectoryReader はディレクトリAPIの読み取りインターフェース。
type DirectoryReader interface {
	ListUsers(ctx context.Context) ([]model.DirectoryUser, error)
	ListAlbumsByUser(ctx context.Context, userID int) ([]model.Album, error)
	ListPhotos(ctx context.Context) ([]model.Photo, error)
}

// ProfileView はプロフィール画面のデータ。
type ProfileView struct {
	User *model.DirectoryUser
}

// AlbumsView はアルバム一覧画面のデータ。
type AlbumsView struct {
	User   *model.DirectoryUser
	Albums []model.Album
	Total  int // 検索前のアルバム数
	Query  string
}

// PhotosView は写真一覧画面のデータ。
type PhotosView struct {
	User    *model.DirectoryUser
	AlbumID *int
	Groups  []model.PhotoGroup
	Total   int // 検索後の写真数
	Query   string
}

// Service はギャラリーのサービス層。
// リクエスト間で状態を共有せず、呼び出しごとにディレクトリから取得し直す。
type Service struct {
	directory DirectoryReader
	logger    *slog.Logger
	metrics   metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(directory DirectoryReader, logger *slog.Logger, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		directory: directory,
		logger:    logger,
		metrics:   collector,
	}
}

// step はビューを組み立てるパイプラインの1段。
type step struct {
	name string
	run  func(ctx context.Context) error
}

// runPipeline は各段を順番に実行する。
// 段の前にコンテキストを確認し、キャンセル済みかエラーが出た時点で残りを実行しない。
func (s *Service) runPipeline(ctx context.Context, view string, steps ...step) error {
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			s.logger.Debug("ビューの構築を中断しました",
				slog.String("view", view),
				slog.String("step", st.name),
			)
			return err
		}
		if err := st.run(ctx); err != nil {
			s.logger.Debug("ビューの構築に失敗しました",
				slog.String("view", view),
				slog.String("step", st.name),
				slog.String("error", err.Error()),
			)
			return err
		}
	}
	return nil
}

// LoadProfile はセッションの利用者に対応するディレクトリユーザーを返す。
func (s *Service) LoadProfile(ctx context.Context, identity model.SessionIdentity) (*ProfileView, error) {
	view := &ProfileView{}
	err := s.runPipeline(ctx, "profile",
		step{"resolve", func(ctx context.Context) error {
			user, err := s.ResolveUser(ctx, identity.Email)
			view.User = user
			return err
		}},
	)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// LoadAlbums は利用者のアルバム一覧をタイトルで絞り込んで返す。
func (s *Service) LoadAlbums(ctx context.Context, identity model.SessionIdentity, search string) (*AlbumsView, error) {
	view := &AlbumsView{Query: search}
	var albums []model.Album

	err := s.runPipeline(ctx, "albums",
		step{"resolve", func(ctx context.Context) error {
			user, err := s.ResolveUser(ctx, identity.Email)
			view.User = user
			return err
		}},
		step{"albums", func(ctx context.Context) error {
			var err error
			albums, err = s.FetchAlbumsForUser(ctx, view.User.ID)
			return err
		}},
		step{"filter", func(context.Context) error {
			view.Total = len(albums)
			view.Albums = FilterByTitle(albums, search)
			return nil
		}},
	)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// LoadPhotos は利用者の写真をアルバムごとにまとめて返す。
// scopeを指定した場合はそのアルバムの写真だけを返す。
func (s *Service) LoadPhotos(ctx context.Context, identity model.SessionIdentity, scope *int, search string) (*PhotosView, error) {
	view := &PhotosView{AlbumID: scope, Query: search}
	var (
		albums []model.Album
		photos []model.Photo
	)

	err := s.runPipeline(ctx, "photos",
		step{"resolve", func(ctx context.Context) error {
			user, err := s.ResolveUser(ctx, identity.Email)
			view.User = user
			return err
		}},
		step{"albums", func(ctx context.Context) error {
			var err error
			albums, err = s.FetchAlbumsForUser(ctx, view.User.ID)
			return err
		}},
		step{"photos", func(ctx context.Context) error {
			var err error
			photos, err = s.FetchPhotos(ctx, albums, scope)
			return err
		}},
		step{"filter", func(context.Context) error {
			photos = FilterByTitle(photos, search)
			view.Total = len(photos)
			return nil
		}},
		step{"group", func(context.Context) error {
			view.Groups = GroupByAlbum(photos, albums)
			return nil
		}},
	)
	if err != nil {
		return nil, err
	}
	return view, nil
}
