// Package directory は外部ディレクトリAPI（ユーザー、アルバム、写真）のクライアントを提供する。
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/photoapp/internal/metrics"
	"github.com/hitoshi/photoapp/internal/model"
)

const (
	// DefaultBaseURL は公開デモAPIのベースURL。
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"
	// maxResponseSize はレスポンスボディの上限（/photos は約1MB）。
	maxResponseSize = 8 << 20

	userAgent = "PhotoApp/1.0"
)

// Client はディレクトリAPIのクライアント。
// 呼び出しごとに取得し直し、結果をキャッシュしない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// ListUsers はディレクトリの全ユーザーを取得する。
// GET /users
func (c *Client) ListUsers(ctx context.Context) ([]model.DirectoryUser, error) {
	var users []model.DirectoryUser
	if err := c.getJSON(ctx, "users", "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListAlbumsByUser は指定ユーザーのアルバムをサーバー側で絞り込んで取得する。
// 順序はAPIの返却順のまま。
// GET /users/{id}/albums
func (c *Client) ListAlbumsByUser(ctx context.Context, userID int) ([]model.Album, error) {
	albums := []model.Album{}
	if err := c.getJSON(ctx, "albums", fmt.Sprintf("/users/%d/albums", userID), &albums); err != nil {
		return nil, err
	}
	if albums == nil {
		albums = []model.Album{}
	}
	return albums, nil
}

// ListPhotos は全写真を取得する。APIにユーザー単位の写真エンドポイントはない。
// GET /photos
func (c *Client) ListPhotos(ctx context.Context) ([]model.Photo, error) {
	var photos []model.Photo
	if err := c.getJSON(ctx, "photos", "/photos", &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// getJSON はGETリクエストを送りJSONをデコードする。
// 通信失敗、200以外のステータス、デコード失敗はすべてErrDirectoryUnavailableに分類される。
// 呼び出し元のコンテキストが終了した場合は障害として扱わず、ctx.Err()をそのまま返す。
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return model.NewDirectoryUnavailableError(endpoint, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.logger.Debug("ディレクトリAPIの呼び出しが中断されました",
				slog.String("endpoint", endpoint),
				slog.String("reason", ctxErr.Error()),
			)
			return ctxErr
		}
		c.metrics.RecordDirectoryFailure(endpoint)
		c.logger.Error("ディレクトリAPIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return model.NewDirectoryUnavailableError(endpoint, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordDirectoryRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("ディレクトリAPIがエラーステータスを返しました",
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
		)
		return model.NewDirectoryUnavailableError(endpoint, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return model.NewDirectoryUnavailableError(endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("ディレクトリAPIのレスポンスのパースに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return model.NewDirectoryUnavailableError(endpoint, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err))
	}

	return nil
}
