package gallery

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/photoapp/internal/model"
	"github.com/stretchr/testify/require"
)

func TestSelectPhotos_ScopeOwned(t *testing.T) {
	albums := []model.Album{{ID: 5, UserID: 1}}
	photos := []model.Photo{{ID: 9, AlbumID: 5}, {ID: 10, AlbumID: 6}}

	got, err := SelectPhotos(photos, albums, intPtr(5))
	require.NoError(t, err)
	require.Equal(t, []model.Photo{{ID: 9, AlbumID: 5}}, got)
}

func TestSelectPhotos_ScopeNotOwned(t *testing.T) {
	albums := []model.Album{{ID: 5, UserID: 1}}
	photos := []model.Photo{{ID: 9, AlbumID: 5}, {ID: 10, AlbumID: 6}}

	got, err := SelectPhotos(photos, albums, intPtr(6))
	require.ErrorIs(t, err, model.ErrAlbumAccessDenied)
	require.Nil(t, got)
}

func TestSelectPhotos_NoScopeKeepsOwnedAlbums(t *testing.T) {
	albums := []model.Album{{ID: 1}, {ID: 2}}
	photos := []model.Photo{
		{ID: 1, AlbumID: 1},
		{ID: 2, AlbumID: 3},
		{ID: 3, AlbumID: 2},
		{ID: 4, AlbumID: 1},
	}

	got, err := SelectPhotos(photos, albums, nil)
	require.NoError(t, err)

	for _, p := range got {
		require.Contains(t, []int{1, 2}, p.AlbumID)
	}
	require.Equal(t, []int{1, 3, 4}, photoIDs(got))
}

func TestSelectPhotos_NoAlbums(t *testing.T) {
	got, err := SelectPhotos([]model.Photo{{ID: 1, AlbumID: 1}}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	_, err = SelectPhotos([]model.Photo{{ID: 1, AlbumID: 1}}, nil, intPtr(1))
	require.ErrorIs(t, err, model.ErrAlbumAccessDenied)
}

func TestGroupByAlbum(t *testing.T) {
	albums := []model.Album{{ID: 1, Title: "first"}, {ID: 2, Title: "second"}}
	photos := []model.Photo{
		{ID: 10, AlbumID: 2},
		{ID: 11, AlbumID: 1},
		{ID: 12, AlbumID: 2},
		{ID: 13, AlbumID: 9},
	}

	groups := GroupByAlbum(photos, albums)
	require.Len(t, groups, 3)

	require.Equal(t, 2, groups[0].AlbumID)
	require.Equal(t, "second", groups[0].AlbumTitle)
	require.Equal(t, []int{10, 12}, photoIDs(groups[0].Photos))

	require.Equal(t, 1, groups[1].AlbumID)
	require.Equal(t, []int{11}, photoIDs(groups[1].Photos))

	// アルバム情報がない場合は既定の表示名になる
	require.Equal(t, 9, groups[2].AlbumID)
	require.Equal(t, defaultAlbumTitle, groups[2].AlbumTitle)
}

func TestGroupByAlbum_Empty(t *testing.T) {
	groups := GroupByAlbum(nil, nil)
	require.NotNil(t, groups)
	require.Empty(t, groups)
}

func TestService_FetchPhotos_AccessDeniedRecordsMetric(t *testing.T) {
	dir := staticDirectory(nil, nil, []model.Photo{{ID: 1, AlbumID: 6}})
	svc, m, _ := newTestService(dir)

	got, err := svc.FetchPhotos(context.Background(), []model.Album{{ID: 5}}, intPtr(6))
	require.ErrorIs(t, err, model.ErrAlbumAccessDenied)
	require.Nil(t, got)
	require.Equal(t, 1, m.accessDenied)
}

func TestService_FetchPhotos_FetchesBeforeOwnershipCheck(t *testing.T) {
	dir := &mockDirectory{
		listPhotosFn: func(context.Context) ([]model.Photo, error) {
			return nil, model.NewDirectoryUnavailableError("photos", errors.New("timeout"))
		},
	}
	svc, m, _ := newTestService(dir)

	_, err := svc.FetchPhotos(context.Background(), []model.Album{{ID: 5}}, intPtr(6))
	require.ErrorIs(t, err, model.ErrDirectoryUnavailable)
	require.Zero(t, m.accessDenied)
}

func photoIDs(photos []model.Photo) []int {
	ids := make([]int, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return ids
}
