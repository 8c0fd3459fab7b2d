package gallery

import (
	"context"
	"log/slog"

	"github.com/hitoshi/photoapp/internal/model"
)

// defaultAlbumTitle はアルバム情報が見つからないグループの表示名。
const defaultAlbumTitle = "Album"

// FetchPhotos は利用者のアルバムに属する写真を返す。
// scopeを指定した場合は所有アルバムかどうかを確認したうえで、そのアルバムの写真だけを返す。
func (s *Service) FetchPhotos(ctx context.Context, albums []model.Album, scope *int) ([]model.Photo, error) {
	// 1. 全写真を取得
	photos, err := s.directory.ListPhotos(ctx)
	if err != nil {
		return nil, err
	}

	// 2. 所有チェックと絞り込み
	selected, err := SelectPhotos(photos, albums, scope)
	if err != nil {
		s.metrics.RecordAccessDenied()
		s.logger.Warn("所有していないアルバムへのアクセスを拒否しました",
			slog.Int("album_id", *scope),
		)
		return nil, err
	}

	return selected, nil
}

// SelectPhotos は写真を所有アルバムで絞り込む。
// scopeが所有アルバムに含まれない場合はErrAlbumAccessDeniedを返し、写真は返さない。
func SelectPhotos(photos []model.Photo, albums []model.Album, scope *int) ([]model.Photo, error) {
	owned := make(map[int]struct{}, len(albums))
	for _, a := range albums {
		owned[a.ID] = struct{}{}
	}

	if scope != nil {
		if _, ok := owned[*scope]; !ok {
			return nil, model.NewAlbumAccessDeniedError(*scope)
		}
		owned = map[int]struct{}{*scope: {}}
	}

	selected := make([]model.Photo, 0)
	for _, p := range photos {
		if _, ok := owned[p.AlbumID]; ok {
			selected = append(selected, p)
		}
	}
	return selected, nil
}

// GroupByAlbum は写真をアルバムごとにまとめる。
// グループの並びは写真中で最初に現れたアルバムの順。
func GroupByAlbum(photos []model.Photo, albums []model.Album) []model.PhotoGroup {
	titles := make(map[int]string, len(albums))
	for _, a := range albums {
		titles[a.ID] = a.Title
	}

	groups := make([]model.PhotoGroup, 0)
	index := make(map[int]int)
	for _, p := range photos {
		i, ok := index[p.AlbumID]
		if !ok {
			title, found := titles[p.AlbumID]
			if !found {
				title = defaultAlbumTitle
			}
			groups = append(groups, model.PhotoGroup{
				AlbumID:    p.AlbumID,
				AlbumTitle: title,
				Photos:     []model.Photo{},
			})
			i = len(groups) - 1
			index[p.AlbumID] = i
		}
		groups[i].Photos = append(groups[i].Photos, p)
	}
	return groups
}
