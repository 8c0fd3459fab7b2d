package gallery

import (
	"context"

	"github.com/hitoshi/photoapp/internal/model"
)

// FetchAlbumsForUser は利用者が所有するアルバムをAPIの返却順で返す。
// アルバムが0件の場合は空スライスを返す。
func (s *Service) FetchAlbumsForUser(ctx context.Context, userID int) ([]model.Album, error) {
	albums, err := s.directory.ListAlbumsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if albums == nil {
		albums = []model.Album{}
	}
	return albums, nil
}
