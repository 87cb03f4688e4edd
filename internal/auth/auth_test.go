package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"candidature-ai/internal/config"
	"candidature-ai/pkg/utils"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) VerifyToken(ctx context.Context, token string) (Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(Identity), args.Error(1)
}

func (m *MockProvider) VerifySession(ctx context.Context, accessToken string) (Identity, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(Identity), args.Error(1)
}

func TestSessionFromCookies(t *testing.T) {
	sessionJSON := `{"access_token":"jwt-json","refresh_token":"r"}`
	encoded := "base64-" + base64.RawURLEncoding.EncodeToString([]byte(sessionJSON))

	tests := []struct {
		name    string
		cookies []*http.Cookie
		want    string
		ok      bool
	}{
		{"none", nil, "", false},
		{"legacy access cookie", []*http.Cookie{{Name: "sb-access-token", Value: "jwt-legacy"}}, "jwt-legacy", true},
		{"raw json", []*http.Cookie{{Name: "sb-abcd-auth-token", Value: url.QueryEscape(sessionJSON)}}, "jwt-json", true},
		{"json array", []*http.Cookie{{Name: "sb-abcd-auth-token", Value: url.QueryEscape(`["jwt-array","refresh",null]`)}}, "jwt-array", true},
		{"base64 session", []*http.Cookie{{Name: "sb-abcd-auth-token", Value: encoded}}, "jwt-json", true},
		{"chunked out of order", []*http.Cookie{
			{Name: "sb-abcd-auth-token.1", Value: encoded[10:]},
			{Name: "sb-abcd-auth-token.0", Value: encoded[:10]},
		}, "jwt-json", true},
		{"unrelated cookies", []*http.Cookie{{Name: "sb-abcd-auth-token-code-verifier", Value: "x"}, {Name: "theme", Value: "dark"}}, "", false},
		{"broken json", []*http.Cookie{{Name: "sb-abcd-auth-token", Value: "{not json"}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SessionFromCookies(tt.cookies)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("bearer wins over cookie", func(t *testing.T) {
		p := new(MockProvider)
		p.On("VerifyToken", ctx, "tok").Return(Identity{UserID: "u1"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.Header.Set("Authorization", "bearer tok")
		req.AddCookie(&http.Cookie{Name: "sb-access-token", Value: "cookie-tok"})

		id, err := NewResolver(p).Resolve(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "u1", id.UserID)
		p.AssertNotCalled(t, "VerifySession", mock.Anything, mock.Anything)
	})

	t.Run("session cookie", func(t *testing.T) {
		p := new(MockProvider)
		p.On("VerifySession", ctx, "cookie-tok").Return(Identity{UserID: "u2"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.AddCookie(&http.Cookie{Name: "sb-access-token", Value: "cookie-tok"})

		id, err := NewResolver(p).Resolve(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "u2", id.UserID)
	})

	t.Run("no credential", func(t *testing.T) {
		p := new(MockProvider)
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.Header.Set("Authorization", "Basic abc")

		_, err := NewResolver(p).Resolve(ctx, req)
		assert.ErrorIs(t, err, utils.ErrUnauthenticated)
		p.AssertExpectations(t)
	})

	t.Run("provider failure is unauthenticated", func(t *testing.T) {
		p := new(MockProvider)
		p.On("VerifyToken", ctx, "tok").Return(Identity{}, assert.AnError)

		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.Header.Set("Authorization", "Bearer tok")

		_, err := NewResolver(p).Resolve(ctx, req)
		assert.ErrorIs(t, err, utils.ErrUnauthenticated)
	})
}

func supabaseServer(t *testing.T, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"5b0f6f7e-0000-4000-8000-000000000001","email":"lea@example.com"}`))
	}))
}

func supabaseConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Supabase.URL = url + "/"
	cfg.Supabase.AnonKey = "anon"
	return cfg
}

func TestSupabaseProvider(t *testing.T) {
	var calls int32
	server := supabaseServer(t, &calls)
	defer server.Close()

	p := NewSupabaseProvider(supabaseConfig(server.URL), server.Client())

	id, err := p.VerifyToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "5b0f6f7e-0000-4000-8000-000000000001", Email: "lea@example.com"}, id)

	_, err = p.VerifySession(context.Background(), "bad")
	assert.ErrorIs(t, err, utils.ErrUnauthenticated)
}

func TestCachedProvider(t *testing.T) {
	var calls int32
	server := supabaseServer(t, &calls)
	defer server.Close()

	cached := NewCachedProvider(NewSupabaseProvider(supabaseConfig(server.URL), server.Client()), utils.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, err := cached.VerifyToken(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, "lea@example.com", id.Email)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	for i := 0; i < 2; i++ {
		_, err := cached.VerifyToken(ctx, "bad")
		assert.ErrorIs(t, err, utils.ErrUnauthenticated)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "rejections are not cached")
}
