package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

// EvidenceRepository is the storage/index sink: it persists classified items
// into the evidence table and hands back the stored object id.
type EvidenceRepository struct {
	db *sql.DB
}

func NewEvidenceRepository(db *sql.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *EvidenceRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent server startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS evidence (
	object_id TEXT PRIMARY KEY,
	item_id TEXT NOT NULL UNIQUE,
	case_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	storage_path TEXT,
	class TEXT NOT NULL,
	sub_type TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	low_confidence BOOLEAN NOT NULL DEFAULT FALSE,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	summary TEXT,
	submitted_at TIMESTAMPTZ NOT NULL,
	persisted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_case_id ON evidence(case_id);
CREATE INDEX IF NOT EXISTS idx_evidence_class_sub_type ON evidence(class, sub_type);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Persist stores one fully summarized item. Re-persisting the same item id
// (a retried stage) updates in place and keeps the original object id.
func (r *EvidenceRepository) Persist(ctx context.Context, item domain.QueueItem) (string, error) {
	if item.Classification == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "persist evidence", fmt.Errorf("item %s has no classification", item.ID))
	}

	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal evidence metadata: %w", err)
	}

	const query = `
INSERT INTO evidence (
	object_id, item_id, case_id, filename, storage_path,
	class, sub_type, confidence, low_confidence, metadata, summary,
	submitted_at, persisted_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (item_id) DO UPDATE SET
	class = EXCLUDED.class,
	sub_type = EXCLUDED.sub_type,
	confidence = EXCLUDED.confidence,
	low_confidence = EXCLUDED.low_confidence,
	metadata = EXCLUDED.metadata,
	summary = EXCLUDED.summary,
	persisted_at = EXCLUDED.persisted_at
RETURNING object_id`

	var objectID string
	err = r.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		item.ID,
		item.CaseID,
		item.Filename,
		item.StoragePath,
		string(item.Classification.Class),
		item.Classification.SubType,
		item.Classification.Confidence,
		item.LowConfidence,
		metadata,
		item.Summary,
		item.CreatedAt,
		time.Now().UTC(),
	).Scan(&objectID)
	if err != nil {
		return "", fmt.Errorf("insert evidence row: %w", err)
	}
	return objectID, nil
}

// FindByCase returns persisted evidence ids for one case, newest first.
func (r *EvidenceRepository) FindByCase(ctx context.Context, caseID string) ([]string, error) {
	const query = `SELECT object_id FROM evidence WHERE case_id = $1 ORDER BY persisted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("query evidence by case: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var objectID string
		if err := rows.Scan(&objectID); err != nil {
			return nil, fmt.Errorf("scan evidence row: %w", err)
		}
		out = append(out, objectID)
	}
	return out, rows.Err()
}
