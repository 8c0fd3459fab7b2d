package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/photoapp/internal/directory"
	"github.com/hitoshi/photoapp/internal/gallery"
	"github.com/hitoshi/photoapp/internal/middleware"
	"github.com/hitoshi/photoapp/internal/model"
	"github.com/hitoshi/photoapp/internal/security"
)

// mockSessionFinder は固定のセッションだけを返すSessionFinder。
type mockSessionFinder struct {
	sessions map[string]*model.Session
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.sessions[id], nil
}

// mockHealthChecker はPingContextの結果を固定するHealthChecker。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error { return m.err }

// newDirectoryServer はディレクトリAPIを模したテストサーバーを起動する。
func newDirectoryServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":1,"name":"Leanne Graham","username":"Bret","email":"Sincere@april.biz","company":{"name":"Romaguera-Crona"}},
			{"id":2,"name":"Jane Doe","username":"janed","email":"jane.doe@example.com","company":{"name":"Doe & Co"}}
		]`))
	})
	mux.HandleFunc("/users/2/albums", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"userId":2,"id":5,"title":"Summer Trip"},{"userId":2,"id":6,"title":"Family"}]`))
	})
	mux.HandleFunc("/photos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"albumId":5,"id":9,"title":"sunset beach","url":"https://via.placeholder.com/600/9","thumbnailUrl":"https://via.placeholder.com/150/9"},
			{"albumId":6,"id":10,"title":"birthday cake","url":"https://via.placeholder.com/600/10","thumbnailUrl":"https://via.placeholder.com/150/10"},
			{"albumId":1,"id":11,"title":"someone else","url":"https://via.placeholder.com/600/11","thumbnailUrl":"https://via.placeholder.com/150/11"}
		]`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type testRouter struct {
	handler   http.Handler
	withdrawn []string
}

func newTestRouter(t *testing.T, directoryURL string) *testRouter {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client := directory.NewClient(&http.Client{Timeout: 2 * time.Second}, logger, nil, directoryURL)
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(600))
	t.Cleanup(rl.Stop)

	tr := &testRouter{}
	tr.handler = NewRouter(&RouterDeps{
		Logger: logger,
		SessionFinder: &mockSessionFinder{sessions: map[string]*model.Session{
			"valid-session": {
				ID:        "valid-session",
				UserID:    "user-123",
				Email:     "jane@example.com",
				ExpiresAt: time.Now().Add(time.Hour),
			},
		}},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		HealthChecker:     &mockHealthChecker{},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics\n"))
		}),
		AuthService: &mockAuthService{
			getLoginURLFn: func(state string) string { return "https://accounts.google.com/auth?state=" + state },
		},
		AuthConfig:     testAuthConfig(),
		GalleryService: gallery.NewService(client, logger, nil),
		Sanitizer:      security.NewTextSanitizer(),
		UserService: &mockUserService{withdrawFn: func(ctx context.Context, userID string) error {
			tr.withdrawn = append(tr.withdrawn, userID)
			return nil
		}},
	})
	return tr
}

func (tr *testRouter) get(t *testing.T, target string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authed {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"})
	}
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)

	w := tr.get(t, "/health", false)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("X-Request-ID header should be set on every response")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should be applied")
	}
}

func TestRouter_Health_DatabaseDown(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestRouter_Metrics(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)

	w := tr.get(t, "/metrics", false)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "# metrics") {
		t.Errorf("status = %d, body = %q", w.Code, w.Body.String())
	}
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)

	for _, path := range []string{"/api/home", "/api/profile", "/api/albums", "/api/photos", "/api/albums/5/photos"} {
		t.Run(path, func(t *testing.T) {
			w := tr.get(t, path, false)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRouter_AuthLoginIsPublic(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)

	w := tr.get(t, "/auth/google/login", false)
	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
}

func TestRouter_Profile_ResolvesByLocalPart(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)

	w := tr.get(t, "/api/profile", true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var body userResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.ID != 2 || body.Username != "janed" {
		t.Errorf("user = %+v, want id 2 (janed)", body)
	}
	if body.Company.Name != "Doe & Co" {
		t.Errorf("company = %q, want %q", body.Company.Name, "Doe & Co")
	}
}

func TestRouter_Albums(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)

	t.Run("all owned albums", func(t *testing.T) {
		w := tr.get(t, "/api/albums", true)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var body albumsResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body.Total != 2 || body.Matched != 2 {
			t.Errorf("total = %d, matched = %d, want 2, 2", body.Total, body.Matched)
		}
		if body.Albums[0].ID != 5 || body.Albums[1].ID != 6 {
			t.Errorf("albums = %+v, want directory order [5 6]", body.Albums)
		}
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		w := tr.get(t, "/api/albums?q=SUMMER", true)
		var body albumsResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body.Matched != 1 || body.Albums[0].Title != "Summer Trip" {
			t.Errorf("albums = %+v", body.Albums)
		}
		if body.Total != 2 {
			t.Errorf("total = %d, want 2", body.Total)
		}
	})
}

func TestRouter_Photos_AllOwnedGroupedByAlbum(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)

	w := tr.get(t, "/api/photos", true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body photosResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Total != 2 {
		t.Errorf("total = %d, want 2 (photo 11 belongs to another user)", body.Total)
	}
	if len(body.Groups) != 2 || body.Groups[0].AlbumID != 5 || body.Groups[1].AlbumID != 6 {
		t.Fatalf("groups = %+v", body.Groups)
	}
	if body.Groups[0].AlbumTitle != "Summer Trip" {
		t.Errorf("album title = %q", body.Groups[0].AlbumTitle)
	}
}

func TestRouter_AlbumPhotos(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)

	t.Run("owned album", func(t *testing.T) {
		w := tr.get(t, "/api/albums/5/photos", true)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var body photosResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body.AlbumID == nil || *body.AlbumID != 5 {
			t.Errorf("album_id = %v, want 5", body.AlbumID)
		}
		if len(body.Groups) != 1 || len(body.Groups[0].Photos) != 1 || body.Groups[0].Photos[0].ID != 9 {
			t.Errorf("groups = %+v, want only photo 9", body.Groups)
		}
	})

	t.Run("album owned by someone else", func(t *testing.T) {
		w := tr.get(t, "/api/albums/1/photos", true)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
		if code := decodeErrorCode(t, w); code != model.ErrCodeAlbumAccessDenied {
			t.Errorf("code = %q, want %q", code, model.ErrCodeAlbumAccessDenied)
		}
	})

	t.Run("invalid album id", func(t *testing.T) {
		w := tr.get(t, "/api/albums/abc/photos", true)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestRouter_DirectoryDown_ReturnsBadGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	tr := newTestRouter(t, server.URL)

	w := tr.get(t, "/api/albums", true)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeDirectoryUnavailable {
		t.Errorf("code = %q, want %q", code, model.ErrCodeDirectoryUnavailable)
	}
}

func TestRouter_DirectoryUnreachable_HidesUpstreamDetails(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	directoryURL := server.URL
	server.Close()
	tr := newTestRouter(t, directoryURL)

	w := tr.get(t, "/api/albums", true)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	body := w.Body.String()
	host := strings.TrimPrefix(directoryURL, "http://")
	if strings.Contains(body, host) {
		t.Errorf("response body leaks directory address %q: %s", host, body)
	}
	var resp middleware.ErrorResponseBody
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Message != "Error loading users" {
		t.Errorf("message = %q, want %q", resp.Message, "Error loading users")
	}
	if strings.Contains(body, "dial") || strings.Contains(body, "refused") {
		t.Errorf("response body leaks transport error: %s", body)
	}
}

func TestRouter_ClientDisconnectDuringDirectoryCall_Returns499(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)
	tr := newTestRouter(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/albums", nil).WithContext(ctx)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"})
	time.AfterFunc(50*time.Millisecond, cancel)

	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)

	if w.Code != statusClientClosedRequest {
		t.Errorf("status = %d, want %d", w.Code, statusClientClosedRequest)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}

func TestRouter_Withdraw_RequiresCSRFToken(t *testing.T) {
	tr := newTestRouter(t, newDirectoryServer(t).URL)
	session := &http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"}

	// トークンなしは拒否
	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req.AddCookie(session)
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if len(tr.withdrawn) != 0 {
		t.Fatal("Withdraw must not run without CSRF token")
	}

	// トークンを取得してから再送
	tokenRes := tr.get(t, "/api/csrf-token", false)
	var tokenBody map[string]string
	if err := json.NewDecoder(tokenRes.Body).Decode(&tokenBody); err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	token := tokenBody["token"]
	if token == "" {
		t.Fatal("empty CSRF token")
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req.AddCookie(session)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	req.Header.Set("X-CSRF-Token", token)
	w = httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if len(tr.withdrawn) != 1 || tr.withdrawn[0] != "user-123" {
		t.Errorf("withdrawn = %v, want [user-123]", tr.withdrawn)
	}
}
