package gallery

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/photoapp/internal/model"
)

// --- モック ---

type mockDirectory struct {
	listUsersFn  func(ctx context.Context) ([]model.DirectoryUser, error)
	listAlbumsFn func(ctx context.Context, userID int) ([]model.Album, error)
	listPhotosFn func(ctx context.Context) ([]model.Photo, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockDirectory) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockDirectory) ListUsers(ctx context.Context) ([]model.DirectoryUser, error) {
	m.record("users")
	return m.listUsersFn(ctx)
}

func (m *mockDirectory) ListAlbumsByUser(ctx context.Context, userID int) ([]model.Album, error) {
	m.record("albums")
	return m.listAlbumsFn(ctx, userID)
}

func (m *mockDirectory) ListPhotos(ctx context.Context) ([]model.Photo, error) {
	m.record("photos")
	return m.listPhotosFn(ctx)
}

type mockMetrics struct {
	resolutions  []string
	accessDenied int
}

func (m *mockMetrics) RecordDirectoryRequest(string, int, time.Duration) {}
func (m *mockMetrics) RecordDirectoryFailure(string)                     {}
func (m *mockMetrics) RecordResolution(outcome string) {
	m.resolutions = append(m.resolutions, outcome)
}
func (m *mockMetrics) RecordAccessDenied() { m.accessDenied++ }

func newTestService(dir DirectoryReader) (*Service, *mockMetrics, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := &mockMetrics{}
	return NewService(dir, logger, m), m, &buf
}

func staticDirectory(users []model.DirectoryUser, albums []model.Album, photos []model.Photo) *mockDirectory {
	return &mockDirectory{
		listUsersFn: func(context.Context) ([]model.DirectoryUser, error) { return users, nil },
		listAlbumsFn: func(_ context.Context, userID int) ([]model.Album, error) {
			owned := []model.Album{}
			for _, a := range albums {
				if a.UserID == userID {
					owned = append(owned, a)
				}
			}
			return owned, nil
		},
		listPhotosFn: func(context.Context) ([]model.Photo, error) { return photos, nil },
	}
}

func intPtr(v int) *int { return &v }
