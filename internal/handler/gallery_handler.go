package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/photoapp/internal/gallery"
	"github.com/hitoshi/photoapp/internal/middleware"
	"github.com/hitoshi/photoapp/internal/model"
)

// maxQueryLength は検索語として受け付ける最大文字数。
const maxQueryLength = 200

// statusClientClosedRequest はクライアント切断時にログへ記録するステータス。
const statusClientClosedRequest = 499

// GalleryServiceInterface はギャラリーハンドラーが必要とするサービスインターフェース。
type GalleryServiceInterface interface {
	LoadProfile(ctx context.Context, identity model.SessionIdentity) (*gallery.ProfileView, error)
	LoadAlbums(ctx context.Context, identity model.SessionIdentity, search string) (*gallery.AlbumsView, error)
	LoadPhotos(ctx context.Context, identity model.SessionIdentity, scope *int, search string) (*gallery.PhotosView, error)
}

// TextSanitizer はディレクトリ由来の文字列をレスポンス用に無害化する。
type TextSanitizer interface {
	Text(raw string) string
	URL(raw string) string
}

// GalleryHandler はギャラリー画面のHTTPハンドラー。
type GalleryHandler struct {
	service   GalleryServiceInterface
	sanitizer TextSanitizer
}

// NewGalleryHandler はGalleryHandlerを生成する。
func NewGalleryHandler(service GalleryServiceInterface, sanitizer TextSanitizer) *GalleryHandler {
	return &GalleryHandler{
		service:   service,
		sanitizer: sanitizer,
	}
}

// --- レスポンス型 ---

type homeFeature struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

type homeResponse struct {
	Email    string        `json:"email"`
	Features []homeFeature `json:"features"`
}

type companyResponse struct {
	Name string `json:"name"`
}

type addressResponse struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}

type userResponse struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Website  string          `json:"website"`
	Company  companyResponse `json:"company"`
	Address  addressResponse `json:"address"`
}

type albumResponse struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Title  string `json:"title"`
}

type photoResponse struct {
	ID           int    `json:"id"`
	AlbumID      int    `json:"album_id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type photoGroupResponse struct {
	AlbumID    int             `json:"album_id"`
	AlbumTitle string          `json:"album_title"`
	Photos     []photoResponse `json:"photos"`
}

type albumsResponse struct {
	Albums  []albumResponse `json:"albums"`
	Total   int             `json:"total"`
	Matched int             `json:"matched"`
	Query   string          `json:"query"`
	Message string          `json:"message,omitempty"`
}

type photosResponse struct {
	AlbumID *int                 `json:"album_id,omitempty"`
	Groups  []photoGroupResponse `json:"groups"`
	Total   int                  `json:"total"`
	Query   string               `json:"query"`
	Message string               `json:"message,omitempty"`
}

// homeFeatures はホーム画面に並べる機能の一覧。
var homeFeatures = []homeFeature{
	{Key: "profile", Title: "User Profile", Description: "View and manage your profile information", Path: "/api/profile"},
	{Key: "albums", Title: "Albums", Description: "Browse and search through your albums", Path: "/api/albums"},
	{Key: "photos", Title: "Photos", Description: "View and manage your photo collection", Path: "/api/photos"},
}

// Home はホーム画面の機能一覧を返す。ディレクトリAPIは呼ばない。
// GET /api/home
func (h *GalleryHandler) Home(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	features := make([]homeFeature, len(homeFeatures))
	copy(features, homeFeatures)

	writeJSON(w, http.StatusOK, homeResponse{
		Email:    identity.Email,
		Features: features,
	})
}

// Profile は利用者に対応するディレクトリユーザーを返す。
// GET /api/profile
func (h *GalleryHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	view, err := h.service.LoadProfile(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toUserResponse(view.User))
}

// ListAlbums は利用者のアルバム一覧を返す。
// GET /api/albums?q=
func (h *GalleryHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := searchQuery(r)
	view, err := h.service.LoadAlbums(r.Context(), identity, query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := albumsResponse{
		Albums:  make([]albumResponse, 0, len(view.Albums)),
		Total:   view.Total,
		Matched: len(view.Albums),
		Query:   query,
	}
	for _, a := range view.Albums {
		resp.Albums = append(resp.Albums, albumResponse{
			ID:     a.ID,
			UserID: a.UserID,
			Title:  h.sanitizer.Text(a.Title),
		})
	}
	if resp.Matched == 0 && query != "" {
		resp.Message = "No albums found matching your search."
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListPhotos は利用者の全アルバムの写真をアルバムごとに返す。
// GET /api/photos?q=
func (h *GalleryHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	h.listPhotos(w, r, nil)
}

// ListAlbumPhotos は指定アルバムの写真を返す。所有していないアルバムは404。
// GET /api/albums/{albumId}/photos?q=
func (h *GalleryHandler) ListAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "albumId")
	albumID, err := strconv.Atoi(raw)
	if err != nil || albumID <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidAlbumIDError(raw))
		return
	}
	h.listPhotos(w, r, &albumID)
}

func (h *GalleryHandler) listPhotos(w http.ResponseWriter, r *http.Request, scope *int) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := searchQuery(r)
	view, err := h.service.LoadPhotos(r.Context(), identity, scope, query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := photosResponse{
		AlbumID: view.AlbumID,
		Groups:  make([]photoGroupResponse, 0, len(view.Groups)),
		Total:   view.Total,
		Query:   query,
	}
	for _, g := range view.Groups {
		group := photoGroupResponse{
			AlbumID:    g.AlbumID,
			AlbumTitle: h.sanitizer.Text(g.AlbumTitle),
			Photos:     make([]photoResponse, 0, len(g.Photos)),
		}
		for _, p := range g.Photos {
			group.Photos = append(group.Photos, photoResponse{
				ID:           p.ID,
				AlbumID:      p.AlbumID,
				Title:        h.sanitizer.Text(p.Title),
				URL:          h.sanitizer.URL(p.URL),
				ThumbnailURL: h.sanitizer.URL(p.ThumbnailURL),
			})
		}
		resp.Groups = append(resp.Groups, group)
	}
	if resp.Total == 0 && query != "" {
		resp.Message = "No photos found matching your search."
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *GalleryHandler) toUserResponse(u *model.DirectoryUser) userResponse {
	return userResponse{
		ID:       u.ID,
		Name:     h.sanitizer.Text(u.Name),
		Username: h.sanitizer.Text(u.Username),
		Email:    h.sanitizer.Text(u.Email),
		Phone:    h.sanitizer.Text(u.Phone),
		Website:  h.sanitizer.Text(u.Website),
		Company:  companyResponse{Name: h.sanitizer.Text(u.Company.Name)},
		Address: addressResponse{
			Street:  h.sanitizer.Text(u.Address.Street),
			Suite:   h.sanitizer.Text(u.Address.Suite),
			City:    h.sanitizer.Text(u.Address.City),
			Zipcode: h.sanitizer.Text(u.Address.Zipcode),
		},
	}
}

// --- ヘルパー関数 ---

// identityOrUnauthorized はコンテキストから利用者を取り出す。
// 取り出せない場合は401を書き込んでfalseを返す。
func identityOrUnauthorized(w http.ResponseWriter, r *http.Request) (model.SessionIdentity, bool) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return model.SessionIdentity{}, false
	}
	return identity, true
}

// searchQuery はqパラメータの検索語を返す。空白は検索語の一部として残し、長すぎる場合のみ切り詰める。
func searchQuery(r *http.Request) string {
	q := r.URL.Query().Get("q")
	if runes := []rune(q); len(runes) > maxQueryLength {
		q = string(runes[:maxQueryLength])
	}
	return q
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	// クライアントが切断済みのためレスポンスは届かない
	if errors.Is(err, context.Canceled) {
		slog.Info("request canceled by client",
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("path", r.URL.Path),
		)
		w.WriteHeader(statusClientClosedRequest)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(err), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はエラー分類からHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrDirectoryUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAlbumAccessDenied):
		return http.StatusNotFound
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeInvalidAlbumID:
			return http.StatusBadRequest
		case model.ErrCodeUnauthorized:
			return http.StatusUnauthorized
		}
	}
	return http.StatusInternalServerError
}
