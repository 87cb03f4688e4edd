package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"candidature-ai/internal/config"
	"candidature-ai/pkg/utils"
)

// SupabaseProvider verifies access tokens with the Supabase Auth user
// endpoint
type SupabaseProvider struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewSupabaseProvider creates a provider for the configured project
func NewSupabaseProvider(cfg *config.Config, httpClient *http.Client) *SupabaseProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Supabase.Timeout}
	}
	return &SupabaseProvider{
		baseURL:    strings.TrimRight(cfg.Supabase.URL, "/"),
		anonKey:    cfg.Supabase.AnonKey,
		httpClient: httpClient,
	}
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifyToken implements Provider
func (p *SupabaseProvider) VerifyToken(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, utils.NewUnauthenticatedError(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Identity{}, utils.NewUnauthenticatedError(fmt.Errorf("auth request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Identity{}, utils.NewUnauthenticatedError(fmt.Errorf("failed to read auth response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, utils.NewUnauthenticatedError(fmt.Errorf("auth API returned status %d", resp.StatusCode))
	}

	var user supabaseUser
	if err := json.Unmarshal(body, &user); err != nil {
		return Identity{}, utils.NewUnauthenticatedError(fmt.Errorf("failed to decode auth user: %w", err))
	}
	if user.ID == "" {
		return Identity{}, utils.NewUnauthenticatedError(fmt.Errorf("auth user has no id"))
	}
	return Identity{UserID: user.ID, Email: user.Email}, nil
}

// VerifySession implements Provider. Supabase sessions carry a regular
// access token, verified the same way as a bearer token.
func (p *SupabaseProvider) VerifySession(ctx context.Context, accessToken string) (Identity, error) {
	return p.VerifyToken(ctx, accessToken)
}
