// internal/repository/outreach_repository.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/outreach-engine/internal/sanitizer"
)

// OutreachRepositoryInterface is what the pipeline and the delivery worker
// need from storage.
type OutreachRepositoryInterface interface {
	SaveRun(ctx context.Context, rec sanitizer.SanitizedRecord) error
	MarkDraftSent(ctx context.Context, runID, channel string) error
}

// OutreachRepository persists sanitized run records to Postgres. Only
// sanitized payloads arrive here; the raw target identifier never does.
type OutreachRepository struct {
	DB *sql.DB
}

// EnsureSchema creates the tables if they don't exist yet.
func (r *OutreachRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS target_profiles (
			id UUID PRIMARY KEY,
			target_hash VARCHAR(64) UNIQUE NOT NULL,
			company VARCHAR(255),
			role VARCHAR(255),
			industry VARCHAR(255),
			links JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS persona_records (
			id UUID PRIMARY KEY,
			target_id UUID NOT NULL REFERENCES target_profiles(id),
			formality_level VARCHAR(20),
			communication_style VARCHAR(500),
			language_hints TEXT,
			interests JSONB,
			tone_json JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS outreach_runs (
			id UUID PRIMARY KEY,
			target_id UUID NOT NULL REFERENCES target_profiles(id),
			status VARCHAR(30) NOT NULL DEFAULT 'pending',
			error_message TEXT,
			started_at TIMESTAMP NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS draft_records (
			id UUID PRIMARY KEY,
			target_id UUID NOT NULL REFERENCES target_profiles(id),
			run_id UUID NOT NULL REFERENCES outreach_runs(id),
			channel VARCHAR(30) NOT NULL,
			subject VARCHAR(255),
			body TEXT NOT NULL,
			score FLOAT,
			approved BOOLEAN NOT NULL DEFAULT FALSE,
			sent BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun writes one sanitized record: upserts the target profile, replaces
// its persona, and inserts the run plus one row per draft, all in a single
// transaction.
func (r *OutreachRepository) SaveRun(ctx context.Context, rec sanitizer.SanitizedRecord) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	targetID, err := upsertTarget(ctx, tx, rec)
	if err != nil {
		return err
	}
	if rec.Tone != nil {
		if err := replacePersona(ctx, tx, targetID, rec); err != nil {
			return err
		}
	}

	runID := rec.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	query := `
		INSERT INTO outreach_runs (id, target_id, status, error_message, started_at, completed_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW(), $5)
	`
	var completedAt *time.Time
	if rec.RunStatus == "completed" || rec.RunStatus == "failed" {
		now := time.Now().UTC()
		completedAt = &now
	}
	if _, err := tx.ExecContext(ctx, query, runID, targetID, rec.RunStatus, rec.RunError, completedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, d := range rec.Drafts {
		query := `
			INSERT INTO draft_records (id, target_id, run_id, channel, subject, body, score, approved, sent, created_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, NOW())
		`
		if _, err := tx.ExecContext(ctx, query,
			uuid.NewString(), targetID, runID,
			d.Channel, d.Subject, d.Body, d.Score, d.Approved, d.Sent,
		); err != nil {
			return fmt.Errorf("insert draft for %s: %w", d.Channel, err)
		}
	}

	return tx.Commit()
}

// MarkDraftSent flips the sent flag for one channel of a run. Used by the
// delivery worker after the provider confirms.
func (r *OutreachRepository) MarkDraftSent(ctx context.Context, runID, channel string) error {
	query := `UPDATE draft_records SET sent=TRUE WHERE run_id=$1 AND channel=$2`
	res, err := r.DB.ExecContext(ctx, query, runID, channel)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no draft record for run %s channel %s", runID, channel)
	}
	return nil
}

func upsertTarget(ctx context.Context, tx *sql.Tx, rec sanitizer.SanitizedRecord) (string, error) {
	links, err := json.Marshal(rec.Links)
	if err != nil {
		return "", fmt.Errorf("marshal links: %w", err)
	}
	query := `
		INSERT INTO target_profiles (id, target_hash, company, role, industry, links, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, NOW(), NOW())
		ON CONFLICT (target_hash) DO UPDATE SET
			company = COALESCE(NULLIF(EXCLUDED.company, ''), target_profiles.company),
			role = COALESCE(NULLIF(EXCLUDED.role, ''), target_profiles.role),
			industry = COALESCE(NULLIF(EXCLUDED.industry, ''), target_profiles.industry),
			links = EXCLUDED.links,
			updated_at = NOW()
		RETURNING id
	`
	var targetID string
	if err := tx.QueryRowContext(ctx, query,
		uuid.NewString(), rec.TargetHash, rec.Company, rec.Role, rec.Industry, links,
	).Scan(&targetID); err != nil {
		return "", fmt.Errorf("upsert target: %w", err)
	}
	return targetID, nil
}

func replacePersona(ctx context.Context, tx *sql.Tx, targetID string, rec sanitizer.SanitizedRecord) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM persona_records WHERE target_id=$1`, targetID); err != nil {
		return fmt.Errorf("clear persona: %w", err)
	}
	interests, err := json.Marshal(rec.Tone.Interests)
	if err != nil {
		return fmt.Errorf("marshal interests: %w", err)
	}
	toneJSON, err := json.Marshal(rec.Tone)
	if err != nil {
		return fmt.Errorf("marshal tone: %w", err)
	}
	query := `
		INSERT INTO persona_records (id, target_id, formality_level, communication_style, language_hints, interests, tone_json, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, NOW())
	`
	if _, err := tx.ExecContext(ctx, query,
		uuid.NewString(), targetID,
		rec.Tone.FormalityLevel, rec.Tone.CommunicationStyle, rec.Tone.LanguageHints,
		interests, toneJSON,
	); err != nil {
		return fmt.Errorf("insert persona: %w", err)
	}
	return nil
}
