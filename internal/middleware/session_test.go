package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/photoapp/internal/model"
)

// mockSessionFinder はSessionFinderのモック。
type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func validSessionFinder() *mockSessionFinder {
	return &mockSessionFinder{
		findByIDFn: func(_ context.Context, id string) (*model.Session, error) {
			if id != "valid-session" {
				return nil, nil
			}
			return &model.Session{
				ID:        id,
				UserID:    "user-123",
				Email:     "jane@test.com",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
}

func TestSessionMiddleware_ValidSession_InjectsIdentity(t *testing.T) {
	var captured model.SessionIdentity
	handler := NewSessionMiddleware(validSessionFinder())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Fatalf("IdentityFromContext returned error: %v", err)
		}
		captured = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/albums", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	want := model.SessionIdentity{UserID: "user-123", Email: "jane@test.com"}
	if captured != want {
		t.Errorf("identity = %+v, want %+v", captured, want)
	}
}

func TestSessionMiddleware_Unauthorized(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
		finder *mockSessionFinder
	}{
		{"no cookie", nil, validSessionFinder()},
		{"empty cookie", &http.Cookie{Name: SessionCookieName, Value: ""}, validSessionFinder()},
		{"expired or unknown session", &http.Cookie{Name: SessionCookieName, Value: "expired"}, validSessionFinder()},
		{"store error", &http.Cookie{Name: SessionCookieName, Value: "valid-session"}, &mockSessionFinder{
			findByIDFn: func(context.Context, string) (*model.Session, error) {
				return nil, errors.New("connection refused")
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSessionMiddleware(tt.finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/albums", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("レスポンスのデコードに失敗: %v", err)
			}
			if body.Code != model.ErrCodeUnauthorized {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
			}
			if body.Message != "Please log in to view your gallery." {
				t.Errorf("message = %q", body.Message)
			}
		})
	}
}

func TestIdentityFromContext_Missing(t *testing.T) {
	if _, err := IdentityFromContext(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("err = %v, want ErrNoIdentity", err)
	}
}

func TestContextWithIdentity_RoundTrip(t *testing.T) {
	want := model.SessionIdentity{UserID: "u-1", Email: "a@b.c"}
	got, err := IdentityFromContext(ContextWithIdentity(context.Background(), want))
	if err != nil {
		t.Fatalf("IdentityFromContext returned error: %v", err)
	}
	if got != want {
		t.Errorf("identity = %+v, want %+v", got, want)
	}
}
