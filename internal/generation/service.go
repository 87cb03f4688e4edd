package generation

import (
	"context"
	"errors"
	"time"

	"candidature-ai/internal/config"
	"candidature-ai/internal/entitlement"
	"candidature-ai/internal/intake"
	"candidature-ai/internal/llm"
	"candidature-ai/internal/llm/processors"
	"candidature-ai/internal/logging"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

// Entitler decides the plan a caller generates under
type Entitler interface {
	Evaluate(ctx context.Context, userID string) (entitlement.Decision, error)
}

// Completer runs a completion with retries, see llm.Manager
type Completer interface {
	Complete(ctx context.Context, req llm.Completion) (*llm.Result, error)
	Configured() bool
}

// Recorder persists a generation. When claimFreePack is set the free credit
// must be claimed in the same transaction, failing with FreeLimitReached
// when it is already gone.
type Recorder interface {
	Record(ctx context.Context, rec models.GenerationRecord, claimFreePack bool) (string, error)
}

// Dependencies are the collaborators of a Service. Cache may be nil, which
// disables Idempotency-Key support.
type Dependencies struct {
	Entitlements Entitler
	Completer    Completer
	Recorder     Recorder
	Cache        utils.Cache
}

// Response is what a successful generation returns to the caller
type Response struct {
	Document     Document `json:"document"`
	Plan         string   `json:"plan"`
	HasWatermark bool     `json:"has_watermark"`
	GenerationID *string  `json:"generation_id"`
	// Replayed is set when the response came from the idempotency cache
	Replayed bool `json:"-"`
}

type responseMeta struct {
	Plan         string  `json:"plan"`
	HasWatermark bool    `json:"has_watermark"`
	GenerationID *string `json:"generation_id"`
}

// Payload returns the caller-facing body: the document fields in their own
// schema next to plan, has_watermark and generation_id
func (r *Response) Payload() interface{} {
	meta := responseMeta{Plan: r.Plan, HasWatermark: r.HasWatermark, GenerationID: r.GenerationID}
	if r.Document.Structured != nil {
		return struct {
			*StructuredDocument
			responseMeta
		}{r.Document.Structured, meta}
	}
	flat := r.Document.Flat
	if flat == nil {
		flat = &FlatDocument{}
	}
	return struct {
		*FlatDocument
		responseMeta
	}{flat, meta}
}

const (
	idempotencyPrefix = "idempotency:"
	pendingMarker     = "pending"

	// persistTimeout bounds the writes after generation. They run detached
	// from the request deadline, which slow provider retries may have used up.
	persistTimeout = 10 * time.Second
)

// Service runs the generation pipeline for one authenticated caller
type Service struct {
	deps           Dependencies
	cleaner        *processors.HTMLCleaner
	maxTokens      int
	idempotencyTTL time.Duration
	lockTTL        time.Duration
	persistTimeout time.Duration
	logger         logging.Logger
}

// NewService creates a generation service
func NewService(cfg *config.Config, deps Dependencies) *Service {
	lockTTL := cfg.Server.GenerationTimeout
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &Service{
		deps:           deps,
		cleaner:        processors.NewHTMLCleaner(),
		maxTokens:      cfg.LLM.MaxTokens,
		idempotencyTTL: cfg.Redis.IdempotencyTTL,
		lockTTL:        lockTTL,
		persistTimeout: persistTimeout,
		logger:         logging.GetGlobalLogger().WithField("component", "generation"),
	}
}

// Configured reports whether a generation provider is available. Callers
// check it before resolving the caller's identity.
func (s *Service) Configured() bool {
	return s.deps.Completer.Configured()
}

// Generate checks entitlement, normalizes and validates body, calls the
// provider and records the result. Provider failures consume no credit.
// A failed insert is logged and reported as a nil GenerationID.
func (s *Service) Generate(ctx context.Context, userID string, body []byte, idempotencyKey string) (*Response, error) {
	if !s.Configured() {
		return nil, utils.NewProviderMisconfiguredError()
	}
	logger := s.logger.WithField("user_id", userID)

	cacheKey := ""
	if idempotencyKey != "" && s.deps.Cache != nil {
		cacheKey = idempotencyPrefix + userID + ":" + idempotencyKey
		if cached, ok := s.replay(ctx, cacheKey); ok {
			logger.Info("Replaying generation for idempotency key", map[string]interface{}{
				"idempotency_key": idempotencyKey,
			})
			return cached, nil
		}
		acquired, err := s.deps.Cache.SetNX(ctx, cacheKey+":lock", pendingMarker, s.lockTTL)
		switch {
		case err != nil:
			logger.Warn("Idempotency cache unavailable", map[string]interface{}{"error": err.Error()})
			cacheKey = ""
		case !acquired:
			return nil, utils.NewConflictError("a request with this Idempotency-Key is already in progress")
		default:
			defer func() { _ = s.deps.Cache.Delete(context.WithoutCancel(ctx), cacheKey+":lock") }()
		}
	}

	decision, err := s.deps.Entitlements.Evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}

	in, err := intake.Normalize(body)
	if err != nil {
		return nil, err
	}
	if err := intake.Validate(in); err != nil {
		return nil, err
	}

	doc, err := s.complete(ctx, in)
	if err != nil {
		return nil, err
	}
	logger.Info("Generation completed", map[string]interface{}{
		"plan":        decision.Plan,
		"schema":      string(doc.Schema),
		"placeholder": doc.Placeholder,
		"source":      in.Source.String(),
	})

	resp := &Response{
		Document:     doc,
		Plan:         decision.Plan,
		HasWatermark: decision.Watermarked(),
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	id, err := s.record(persistCtx, userID, in, decision, doc)
	switch {
	case errors.Is(err, utils.ErrFreeLimitReached):
		logger.Warn("Free credit claimed by a concurrent request, discarding generation")
		return nil, err
	case err != nil:
		logger.Error("Failed to persist generation", map[string]interface{}{
			"plan":  decision.Plan,
			"error": err.Error(),
		})
	default:
		resp.GenerationID = &id
	}

	if cacheKey != "" {
		if err := s.deps.Cache.SetJSON(persistCtx, cacheKey, resp, s.idempotencyTTL); err != nil {
			logger.Warn("Failed to cache generation response", map[string]interface{}{"error": err.Error()})
		}
	}
	return resp, nil
}

func (s *Service) replay(ctx context.Context, key string) (*Response, bool) {
	var cached Response
	if err := s.deps.Cache.GetJSON(ctx, key, &cached); err != nil {
		if !errors.Is(err, utils.ErrCacheMiss) {
			s.logger.Warn("Idempotency lookup failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	cached.Replayed = true
	return &cached, true
}

func (s *Service) complete(ctx context.Context, in *intake.Intake) (Document, error) {
	promptInput := *in
	promptInput.OfferText = s.cleaner.CleanOffer(in.OfferText)

	user, err := BuildUserPrompt(&promptInput)
	if err != nil {
		return Document{}, utils.NewInternalServerError(err)
	}

	res, err := s.deps.Completer.Complete(ctx, llm.Completion{
		System:      BuildSystemPrompt(),
		User:        user,
		Temperature: Temperature,
		MaxTokens:   s.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Document{}, err
	}

	doc := ParseDocument(res.Text)
	if doc.Placeholder {
		s.logger.Warn("Provider answer was not usable JSON, using placeholder document", map[string]interface{}{
			"attempts":      res.Attempts,
			"answer_length": len(res.Text),
		})
	}
	return doc, nil
}

func (s *Service) record(ctx context.Context, userID string, in *intake.Intake, decision entitlement.Decision, doc Document) (string, error) {
	cv, letter, message := doc.Columns()
	rec := models.GenerationRecord{
		UserID:             userID,
		TargetJobTitle:     in.JobType,
		Plan:               decision.Plan,
		CVContent:          cv,
		CoverLetterContent: letter,
		MessageContent:     message,
	}
	if in.CompanyName != "" {
		company := in.CompanyName
		rec.CompanyName = &company
	}
	return s.deps.Recorder.Record(ctx, rec, decision.ClaimFreePack)
}
