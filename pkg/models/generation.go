package models

import "time"

// Plan tiers
const (
	PlanFree = "free"
	PlanPaid = "paid"
)

// SubscriptionActive is the only subscription status that grants the paid plan
const SubscriptionActive = "active"

// SubscriberProfile is the subset of the profiles row the entitlement rules need
type SubscriberProfile struct {
	UserID             string `json:"id"`
	SubscriptionStatus string `json:"subscription_status"`
	FreePackUsed       bool   `json:"free_pack_used"`
}

// IsActive reports whether the subscriber currently pays
func (p SubscriberProfile) IsActive() bool {
	return p.SubscriptionStatus == SubscriptionActive
}

// GenerationRecord is one persisted generation. Rows are append-only.
type GenerationRecord struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	TargetJobTitle     string    `json:"target_job_title"`
	CompanyName        *string   `json:"company_name"`
	Plan               string    `json:"plan"`
	CVContent          string    `json:"cv_content"`
	CoverLetterContent string    `json:"cover_letter_content"`
	MessageContent     string    `json:"message_content"`
	CreatedAt          time.Time `json:"created_at"`
}

// FormDefaults is the per-user saved form state
type FormDefaults struct {
	UserID    string                 `json:"user_id"`
	Data      map[string]interface{} `json:"data"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// StripOfferFields drops the fields describing a specific job offer
func StripOfferFields(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, f := range OfferFields {
		delete(out, f)
	}
	return out
}
