package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

// MemoryStore is an in-process Repository with the same transactional
// semantics as PostgresStore. It backs tests and local runs without a
// database.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]models.SubscriberProfile
	records  []models.GenerationRecord
	defaults map[string]models.FormDefaults
	now      func() time.Time
	// FailInserts makes Record fail after the free pack claim, which is then
	// rolled back
	FailInserts bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: map[string]models.SubscriberProfile{},
		defaults: map[string]models.FormDefaults{},
		now:      time.Now,
	}
}

// PutProfile creates or replaces a profile
func (m *MemoryStore) PutProfile(p models.SubscriberProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
}

func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*models.SubscriberProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, utils.NewProfileNotFoundError(nil)
	}
	return &p, nil
}

func (m *MemoryStore) Record(_ context.Context, rec models.GenerationRecord, claimFreePack bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if claimFreePack {
		p, ok := m.profiles[rec.UserID]
		if !ok || p.FreePackUsed {
			return "", utils.NewFreeLimitReachedError()
		}
		if m.FailInserts {
			return "", utils.NewPersistenceError(nil)
		}
		p.FreePackUsed = true
		m.profiles[rec.UserID] = p
	} else if m.FailInserts {
		return "", utils.NewPersistenceError(nil)
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = m.now()
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *MemoryStore) ListGenerations(_ context.Context, userID string, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.GenerationRecord{}
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) GetGeneration(_ context.Context, userID, id string) (*models.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, utils.NewNotFoundError("generation not found")
}

func (m *MemoryStore) GetDefaults(_ context.Context, userID string) (*models.FormDefaults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defaults[userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *MemoryStore) SaveDefaults(_ context.Context, userID string, data map[string]interface{}) error {
	// Round-trip through JSON so stored values match what Postgres returns.
	raw, err := json.Marshal(data)
	if err != nil {
		return utils.NewBadRequestError(err.Error())
	}
	var copied map[string]interface{}
	if err := json.Unmarshal(raw, &copied); err != nil {
		return utils.NewBadRequestError(err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults[userID] = models.FormDefaults{UserID: userID, Data: copied, UpdatedAt: m.now()}
	return nil
}

// Records returns every stored generation, oldest first
func (m *MemoryStore) Records() []models.GenerationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GenerationRecord(nil), m.records...)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close()                     {}
