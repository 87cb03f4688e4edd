package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"candidature-ai/internal/api/middleware"
	"candidature-ai/internal/auth"
	"candidature-ai/internal/config"
	"candidature-ai/internal/generation"
	"candidature-ai/internal/health"
	"candidature-ai/internal/render"
	"candidature-ai/internal/store"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

type stubIdentityProvider struct{}

func (stubIdentityProvider) VerifyToken(_ context.Context, token string) (auth.Identity, error) {
	if token == "good" {
		return auth.Identity{UserID: "u1", Email: "u1@example.com"}, nil
	}
	return auth.Identity{}, utils.NewUnauthenticatedError(nil)
}

func (p stubIdentityProvider) VerifySession(ctx context.Context, token string) (auth.Identity, error) {
	return p.VerifyToken(ctx, token)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockGenerator) Generate(ctx context.Context, userID string, body []byte, key string) (*generation.Response, error) {
	args := m.Called(ctx, userID, body, key)
	if r := args.Get(0); r != nil {
		return r.(*generation.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderCV(ctx context.Context, cv *models.CV, opts render.Options) ([]byte, error) {
	args := m.Called(ctx, cv, opts)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

type server struct {
	e         *echo.Echo
	gen       *MockGenerator
	renderer  *MockRenderer
	mem       *store.MemoryStore
	dbHealthy bool
}

func newServer(t *testing.T, configured bool, limiter *middleware.ClientRateLimiter) *server {
	t.Helper()
	s := &server{
		e:         echo.New(),
		gen:       new(MockGenerator),
		renderer:  new(MockRenderer),
		mem:       store.NewMemoryStore(),
		dbHealthy: true,
	}
	s.gen.On("Configured").Return(configured)

	checker := health.NewChecker("test", time.Second, health.Check{
		Name:     "database",
		Critical: true,
		Probe: func(context.Context) error {
			if !s.dbHealthy {
				return assert.AnError
			}
			return nil
		},
	})

	cfg := config.Default()
	SetupRoutes(s.e, cfg, Dependencies{
		Generator: s.gen,
		Resolver:  auth.NewResolver(stubIdentityProvider{}),
		Profiles:  s.mem,
		Renderer:  s.renderer,
		History:   s.mem,
		Defaults:  s.mem,
		Health:    checker,
		Limiter:   limiter,
	})
	return s
}

func (s *server) do(method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGenerate_MisconfiguredBeforeAuth(t *testing.T) {
	s := newServer(t, false, nil)

	rec := s.do(http.MethodPost, "/generate", `{}`, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "PROVIDER_MISCONFIGURED", body.Error)
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, body.RequestID, rec.Header().Get(echo.HeaderXRequestID))
	s.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_RequiresIdentity(t *testing.T) {
	s := newServer(t, true, nil)

	for _, token := range []string{"", "bad"} {
		rec := s.do(http.MethodPost, "/api/v1/generate", `{}`, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHENTICATED", decodeError(t, rec).Error)
	}
}

func TestGenerate_Success(t *testing.T) {
	s := newServer(t, true, nil)
	id := "7f1e2d3c-0000-4000-8000-000000000001"
	resp := &generation.Response{
		Document: generation.Document{
			Schema: generation.SchemaFlat,
			Flat:   &generation.FlatDocument{CVContent: "cv", CoverLetterContent: "lettre", MessageContent: "msg"},
		},
		Plan:         models.PlanFree,
		HasWatermark: true,
		GenerationID: &id,
	}
	s.gen.On("Generate", mock.Anything, "u1", []byte(`{"offerText":"x"}`), "key-1").Return(resp, nil)

	for _, path := range []string{"/generate", "/api/v1/generate"} {
		rec := s.do(http.MethodPost, path, `{"offerText":"x"}`, "good", middleware.HeaderIdempotencyKey, "key-1")

		require.Equal(t, http.StatusOK, rec.Code, path)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, map[string]interface{}{
			"cv_content":           "cv",
			"cover_letter_content": "lettre",
			"message_content":      "msg",
			"plan":                 "free",
			"has_watermark":        true,
			"generation_id":        id,
		}, payload)
	}
}

func TestGenerate_ReplayHeader(t *testing.T) {
	s := newServer(t, true, nil)
	s.gen.On("Generate", mock.Anything, "u1", mock.Anything, "k").Return(&generation.Response{
		Document: generation.PlaceholderDocument(),
		Plan:     models.PlanPaid,
		Replayed: true,
	}, nil)

	rec := s.do(http.MethodPost, "/generate", `{}`, "good", middleware.HeaderIdempotencyKey, "k")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.Contains(t, rec.Body.String(), `"generation_id":null`)
}

func TestGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{utils.NewFreeLimitReachedError(), http.StatusPaymentRequired, "FREE_LIMIT_REACHED"},
		{utils.NewProfileNotFoundError(nil), http.StatusNotFound, "PROFILE_NOT_FOUND"},
		{utils.NewInvalidInputError("offerText must be at least 50 characters"), http.StatusBadRequest, "INVALID_INPUT"},
		{utils.NewInvalidFormatError("unknown shape"), http.StatusBadRequest, "INVALID_FORMAT"},
		{utils.NewProviderError(assert.AnError), http.StatusBadGateway, "PROVIDER_ERROR"},
		{utils.NewProviderTimeoutError(nil), http.StatusGatewayTimeout, "PROVIDER_TIMEOUT"},
		{utils.NewConflictError("in flight"), http.StatusConflict, "CONFLICT"},
		{assert.AnError, http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			s := newServer(t, true, nil)
			s.gen.On("Generate", mock.Anything, "u1", mock.Anything, "").Return(nil, tt.err)

			rec := s.do(http.MethodPost, "/generate", `{}`, "good")

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error)
		})
	}
}

const pdfBody = `{"cvData":{"cv":{"header":{"fullName":"Léa Martin"}}}}`

func TestPDF_Watermark(t *testing.T) {
	tests := []struct {
		name      string
		profile   *models.SubscriberProfile
		watermark bool
	}{
		{"active subscriber", &models.SubscriberProfile{UserID: "u1", SubscriptionStatus: "active"}, false},
		{"free user", &models.SubscriberProfile{UserID: "u1", FreePackUsed: true}, true},
		{"no profile row", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, true, nil)
			if tt.profile != nil {
				s.mem.PutProfile(*tt.profile)
			}
			s.renderer.On("RenderCV", mock.Anything, mock.MatchedBy(func(cv *models.CV) bool {
				return cv.Header.FullName == "Léa Martin"
			}), render.Options{Watermark: tt.watermark}).Return([]byte("%PDF-1.5"), nil)

			rec := s.do(http.MethodPost, "/api/v1/pdf", pdfBody, "good")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
			assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `attachment; filename="cv-`)
			assert.Equal(t, "%PDF-1.5", rec.Body.String())
			s.renderer.AssertExpectations(t)
		})
	}
}

func TestPDF_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing data", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"not json", `{`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown type", `{"cvData":{},"type":"poster"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"message layout", `{"cvData":{"cv":{"header":{"fullName":"A"}}},"type":"message"}`, http.StatusNotImplemented, "NOT_IMPLEMENTED"},
		{"cv type without cv", `{"cvData":{}}`, http.StatusNotImplemented, "NOT_IMPLEMENTED"},
		{"bad accent", `{"cvData":{"cv":{"header":{"fullName":"A"},"accentColor":"red"}}}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, true, nil)

			rec := s.do(http.MethodPost, "/api/v1/pdf", tt.body, "good")

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error)
			s.renderer.AssertNotCalled(t, "RenderCV", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGenerations(t *testing.T) {
	s := newServer(t, true, nil)
	ctx := context.Background()

	rec := s.do(http.MethodGet, "/api/v1/generations", "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"generations":[],"count":0}`, rec.Body.String())

	s.mem.PutProfile(models.SubscriberProfile{UserID: "u1", SubscriptionStatus: "active"})
	s.mem.PutProfile(models.SubscriberProfile{UserID: "u2", SubscriptionStatus: "active"})
	mine, err := s.mem.Record(ctx, models.GenerationRecord{UserID: "u1", TargetJobTitle: "Dev", Plan: models.PlanPaid}, false)
	require.NoError(t, err)
	theirs, err := s.mem.Record(ctx, models.GenerationRecord{UserID: "u2", TargetJobTitle: "Ops", Plan: models.PlanPaid}, false)
	require.NoError(t, err)

	rec = s.do(http.MethodGet, "/api/v1/generations", "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.GenerationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, mine, list.Generations[0].ID)

	rec = s.do(http.MethodGet, "/api/v1/generations/"+mine, "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"target_job_title":"Dev"`)

	rec = s.do(http.MethodGet, "/api/v1/generations/"+theirs, "", "good")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/generations/not-a-uuid", "", "good")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/generations", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDefaults(t *testing.T) {
	s := newServer(t, true, nil)

	rec := s.do(http.MethodGet, "/api/v1/defaults", "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":null}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/defaults",
		`{"firstName":"Léa","city":"Lyon","targetJobTitle":"Dev","companyName":"Acme","jobDescription":"..."}`, "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/defaults", "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"firstName":"Léa","city":"Lyon"}}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/defaults", `not json`, "good")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/defaults", "", "good")
	assert.JSONEq(t, `{"data":{}}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newServer(t, true, nil)

	rec := s.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	s.dbHealthy = false
	rec = s.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)

	rec = s.do(http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitPerUser(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.RequestsPerMinute = 1
	cfg.RateLimit.Burst = 1
	limiter := middleware.NewClientRateLimiter(cfg)
	defer limiter.Stop()

	s := newServer(t, true, limiter)
	s.gen.On("Generate", mock.Anything, "u1", mock.Anything, "").Return(&generation.Response{
		Document: generation.PlaceholderDocument(),
		Plan:     models.PlanPaid,
	}, nil)

	rec := s.do(http.MethodPost, "/generate", `{}`, "good")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/generate", `{}`, "good")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Error)

	// History reads are not limited
	rec = s.do(http.MethodGet, "/api/v1/generations", "", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newServer(t, true, nil)

	rec := s.do(http.MethodGet, "/health/live", "", "", echo.HeaderXRequestID, "client-req-0001")
	assert.Equal(t, "client-req-0001", rec.Header().Get(echo.HeaderXRequestID))

	rec = s.do(http.MethodGet, "/health/live", "", "", echo.HeaderXRequestID, "bad id with spaces")
	assert.NotEqual(t, "bad id with spaces", rec.Header().Get(echo.HeaderXRequestID))
	assert.True(t, utils.IsUUID(rec.Header().Get(echo.HeaderXRequestID)))
}

func TestUnknownRoute(t *testing.T) {
	s := newServer(t, true, nil)

	rec := s.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error)
}
