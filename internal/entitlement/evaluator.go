package entitlement

import (
	"context"

	"candidature-ai/internal/logging"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

// ProfileReader loads the subscriber profile of a user. Implementations
// return an error matching utils.ErrProfileNotFound when no row exists.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.SubscriberProfile, error)
}

// Decision is the outcome of a successful entitlement check
type Decision struct {
	Plan string
	// ClaimFreePack is set when the generation consumes the one free credit
	ClaimFreePack bool
}

// Watermarked reports whether documents produced under this decision carry
// the free-tier watermark
func (d Decision) Watermarked() bool {
	return d.Plan != models.PlanPaid
}

// Decide applies the entitlement table to a loaded profile
func Decide(p models.SubscriberProfile) (Decision, error) {
	switch {
	case p.IsActive():
		return Decision{Plan: models.PlanPaid}, nil
	case !p.FreePackUsed:
		return Decision{Plan: models.PlanFree, ClaimFreePack: true}, nil
	default:
		return Decision{}, utils.NewFreeLimitReachedError()
	}
}

// Evaluator decides whether a caller may run another generation
type Evaluator struct {
	profiles ProfileReader
	logger   logging.Logger
}

// NewEvaluator creates an evaluator backed by the given profile reader
func NewEvaluator(profiles ProfileReader) *Evaluator {
	return &Evaluator{
		profiles: profiles,
		logger:   logging.GetGlobalLogger(),
	}
}

// Evaluate loads the caller's profile and applies Decide
func (e *Evaluator) Evaluate(ctx context.Context, userID string) (Decision, error) {
	profile, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	decision, err := Decide(*profile)
	if err != nil {
		e.logger.Info("Free generation limit reached", map[string]interface{}{
			"user_id": userID,
		})
		return Decision{}, err
	}

	e.logger.Debug("Entitlement granted", map[string]interface{}{
		"user_id":    userID,
		"plan":       decision.Plan,
		"claim_free": decision.ClaimFreePack,
	})
	return decision, nil
}
