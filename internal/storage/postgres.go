package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"imgaudit/internal/domain"
)

// ErrNotFound means no pass has been recorded for the queried URL.
var ErrNotFound = errors.New("not found")

// PostgresStore handles interactions with the PostgreSQL database.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// SavePass upserts the pass row and replaces its image records within a
// single transaction.
func (s *PostgresStore) SavePass(ctx context.Context, result *domain.AuditResult) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var passID int
	err = tx.QueryRow(ctx,
		`INSERT INTO audit_passes (url, status, fail_reason, image_count, audited_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (url) DO UPDATE SET
		   status = EXCLUDED.status, fail_reason = EXCLUDED.fail_reason,
		   image_count = EXCLUDED.image_count, audited_at = EXCLUDED.audited_at, updated_at = NOW()
		 RETURNING id`,
		result.URL, result.Status, result.FailReason, len(result.Records), result.AuditedAt,
	).Scan(&passID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM image_records WHERE pass_id = $1`, passID); err != nil {
		return err
	}

	if len(result.Records) > 0 {
		batch := &pgx.Batch{}
		for i, rec := range result.Records {
			payload, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal image record %d: %w", i, err)
			}
			// Position preserves the snapshot order of the pass.
			batch.Queue(`INSERT INTO image_records (pass_id, position, record) VALUES ($1, $2, $3)`,
				passID, i, payload)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetStatus retrieves the current pass status of a URL.
func (s *PostgresStore) GetStatus(ctx context.Context, url string) (*domain.AuditStatusResponse, error) {
	var status domain.AuditStatusResponse
	err := s.db.QueryRow(ctx,
		`SELECT url, status, COALESCE(fail_reason, ''), image_count, updated_at
		 FROM audit_passes WHERE url = $1`,
		url,
	).Scan(&status.URL, &status.Status, &status.FailReason, &status.ImageCount, &status.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetReport returns the stored image usage records of the last completed
// pass for url, in snapshot order.
func (s *PostgresStore) GetReport(ctx context.Context, url string) ([]domain.ImageUsageRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.record
		 FROM image_records r
		 JOIN audit_passes p ON p.id = r.pass_id
		 WHERE p.url = $1
		 ORDER BY r.position`,
		url,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ImageUsageRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec domain.ImageUsageRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal image record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if records == nil {
		return nil, ErrNotFound
	}
	return records, nil
}
