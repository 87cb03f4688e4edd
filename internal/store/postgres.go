package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"candidature-ai/internal/config"
	"candidature-ai/internal/logging"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

// PostgresStore implements Repository on the Supabase Postgres database
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// Connect opens the pool, checks connectivity and, when configured, creates
// the tables the service needs
func Connect(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	if cfg.Database.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	}
	if cfg.Database.SimpleProtocol {
		// The Supabase pooler runs in transaction mode and cannot keep
		// prepared statements between transactions.
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := NewPostgresStore(pool)
	if cfg.Database.EnsureSchema {
		if err := s.ensureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.logger.Info("Database store initialised", map[string]interface{}{
		"max_conns":     poolCfg.MaxConns,
		"ensure_schema": cfg.Database.EnsureSchema,
	})
	return s, nil
}

// NewPostgresStore wraps an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logging.GetGlobalLogger().WithField("component", "store"),
	}
}

// ensureSchema creates the tables for local databases. In production the
// profiles table is owned by the auth and billing side.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			id                  UUID PRIMARY KEY,
			subscription_status TEXT,
			free_pack_used      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at          TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS generations (
			id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id              UUID NOT NULL,
			target_job_title     TEXT,
			company_name         TEXT,
			plan                 TEXT NOT NULL,
			cv_content           TEXT NOT NULL DEFAULT '',
			cover_letter_content TEXT NOT NULL DEFAULT '',
			message_content      TEXT NOT NULL DEFAULT '',
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_generations_user_created ON generations(user_id, created_at DESC);
		CREATE TABLE IF NOT EXISTS user_form_defaults (
			user_id    UUID PRIMARY KEY,
			data       JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// GetProfile loads the entitlement fields of a profile
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*models.SubscriberProfile, error) {
	var p models.SubscriberProfile
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, COALESCE(subscription_status, ''), COALESCE(free_pack_used, FALSE)
		FROM profiles
		WHERE id = $1::uuid
	`, userID).Scan(&p.UserID, &p.SubscriptionStatus, &p.FreePackUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.NewProfileNotFoundError(nil)
	}
	if err != nil {
		return nil, utils.NewPersistenceError(fmt.Errorf("load profile: %w", err))
	}
	return &p, nil
}

// Record implements Repository
func (s *PostgresStore) Record(ctx context.Context, rec models.GenerationRecord, claimFreePack bool) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", utils.NewPersistenceError(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if claimFreePack {
		tag, err := tx.Exec(ctx, `
			UPDATE profiles SET free_pack_used = TRUE
			WHERE id = $1::uuid AND free_pack_used = FALSE
		`, rec.UserID)
		if err != nil {
			return "", utils.NewPersistenceError(fmt.Errorf("claim free pack: %w", err))
		}
		if tag.RowsAffected() == 0 {
			return "", utils.NewFreeLimitReachedError()
		}
	}

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO generations
			(user_id, target_job_title, company_name, plan, cv_content, cover_letter_content, message_content)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		RETURNING id::text
	`, rec.UserID, rec.TargetJobTitle, rec.CompanyName, rec.Plan,
		rec.CVContent, rec.CoverLetterContent, rec.MessageContent).Scan(&id)
	if err != nil {
		return "", utils.NewPersistenceError(fmt.Errorf("insert generation: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return "", utils.NewPersistenceError(fmt.Errorf("commit: %w", err))
	}
	return id, nil
}

const generationColumns = `id::text, user_id::text, COALESCE(target_job_title, ''), company_name, plan,
	cv_content, cover_letter_content, message_content, created_at`

func scanGeneration(row pgx.Row) (*models.GenerationRecord, error) {
	var r models.GenerationRecord
	err := row.Scan(&r.ID, &r.UserID, &r.TargetJobTitle, &r.CompanyName, &r.Plan,
		&r.CVContent, &r.CoverLetterContent, &r.MessageContent, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListGenerations returns the caller's most recent generations, newest first
func (s *PostgresStore) ListGenerations(ctx context.Context, userID string, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+generationColumns+`
		FROM generations
		WHERE user_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, utils.NewPersistenceError(fmt.Errorf("list generations: %w", err))
	}
	defer rows.Close()

	records := make([]models.GenerationRecord, 0, limit)
	for rows.Next() {
		r, err := scanGeneration(rows)
		if err != nil {
			return nil, utils.NewPersistenceError(fmt.Errorf("scan generation: %w", err))
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewPersistenceError(err)
	}
	return records, nil
}

// GetGeneration returns one generation owned by userID
func (s *PostgresStore) GetGeneration(ctx context.Context, userID, id string) (*models.GenerationRecord, error) {
	r, err := scanGeneration(s.pool.QueryRow(ctx, `
		SELECT `+generationColumns+`
		FROM generations
		WHERE id = $1::uuid AND user_id = $2::uuid
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.NewNotFoundError("generation not found")
	}
	if err != nil {
		return nil, utils.NewPersistenceError(fmt.Errorf("get generation: %w", err))
	}
	return r, nil
}

// GetDefaults implements Repository
func (s *PostgresStore) GetDefaults(ctx context.Context, userID string) (*models.FormDefaults, error) {
	var (
		raw string
		d   models.FormDefaults
	)
	err := s.pool.QueryRow(ctx, `
		SELECT user_id::text, data::text, updated_at
		FROM user_form_defaults
		WHERE user_id = $1::uuid
	`, userID).Scan(&d.UserID, &raw, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewPersistenceError(fmt.Errorf("load defaults: %w", err))
	}
	if err := json.Unmarshal([]byte(raw), &d.Data); err != nil {
		return nil, utils.NewPersistenceError(fmt.Errorf("decode defaults: %w", err))
	}
	return &d, nil
}

// SaveDefaults upserts the caller's defaults
func (s *PostgresStore) SaveDefaults(ctx context.Context, userID string, data map[string]interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return utils.NewBadRequestError(err.Error())
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_form_defaults (user_id, data, updated_at)
		VALUES ($1::uuid, $2::jsonb, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			data       = EXCLUDED.data,
			updated_at = NOW()
	`, userID, string(raw))
	if err != nil {
		return utils.NewPersistenceError(fmt.Errorf("save defaults: %w", err))
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
