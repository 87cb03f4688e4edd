package auth

import (
	"context"
	"net/http"
	"strings"

	"candidature-ai/internal/logging"
	"candidature-ai/pkg/utils"
)

// Identity is the verified caller of a request
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
}

type identityKey struct{}

// WithIdentity stores an Identity in the context
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom retrieves the Identity stored by WithIdentity
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Provider verifies credentials against the identity provider
type Provider interface {
	// VerifyToken checks a bearer access token
	VerifyToken(ctx context.Context, token string) (Identity, error)
	// VerifySession checks the access token carried by a session cookie
	VerifySession(ctx context.Context, accessToken string) (Identity, error)
}

// Resolver extracts the caller's credential from a request and verifies it
type Resolver struct {
	provider Provider
	logger   logging.Logger
}

// NewResolver creates a resolver backed by provider
func NewResolver(provider Provider) *Resolver {
	return &Resolver{
		provider: provider,
		logger:   logging.GetGlobalLogger().WithField("component", "auth"),
	}
}

// Resolve returns the verified identity of the caller. A bearer header wins
// over a session cookie. Every failure is Unauthenticated.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (Identity, error) {
	var (
		id  Identity
		err error
	)
	switch token, hasBearer := bearerToken(req.Header.Get("Authorization")); {
	case hasBearer:
		id, err = r.provider.VerifyToken(ctx, token)
	default:
		session, ok := SessionFromCookies(req.Cookies())
		if !ok {
			return Identity{}, utils.NewUnauthenticatedError(nil)
		}
		id, err = r.provider.VerifySession(ctx, session)
	}

	if err != nil {
		r.logger.Debug("Credential rejected", map[string]interface{}{"error": err.Error()})
		if ce := utils.AsCustomError(err); ce.Kind == utils.KindUnauthenticated {
			return Identity{}, ce
		}
		return Identity{}, utils.NewUnauthenticatedError(err)
	}
	if id.UserID == "" {
		return Identity{}, utils.NewUnauthenticatedError(nil)
	}
	return id, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
