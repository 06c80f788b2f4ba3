package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adamscao/certwatch/internal/db"
	"github.com/adamscao/certwatch/internal/models"
)

// RecordRepository handles the append-only issuance ledger
type RecordRepository struct {
	db db.Querier
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(q db.Querier) *RecordRepository {
	return &RecordRepository{db: q}
}

// WithTx returns a repository bound to tx
func (r *RecordRepository) WithTx(tx *sql.Tx) *RecordRepository {
	return &RecordRepository{db: tx}
}

// Append inserts a new issuance record. An empty provider is stored as NULL.
func (r *RecordRepository) Append(ctx context.Context, hostID int64, provider string, duration int, timestamp time.Time) (int64, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) > 0 FROM hosts WHERE id = ?`, hostID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check host: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("host id %d: %w", hostID, ErrNotFound)
	}

	query := `
		INSERT INTO records (host_id, timestamp, provider, duration)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		hostID,
		timestamp.UTC().Truncate(time.Second),
		sql.NullString{String: provider, Valid: provider != ""},
		duration,
	)
	if isForeignKeyViolation(err) {
		return 0, fmt.Errorf("host id %d: %w", hostID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create issuance record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// ListByHost lists the issuance history of a host, newest first. A limit of
// zero or less returns every record.
func (r *RecordRepository) ListByHost(ctx context.Context, hostID int64, limit int) ([]*models.IssuanceRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, host_id, timestamp, provider, duration
		FROM records
		WHERE host_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, hostID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*models.IssuanceRecord

	for rows.Next() {
		record := &models.IssuanceRecord{}
		var provider sql.NullString

		err := rows.Scan(
			&record.ID,
			&record.HostID,
			&record.Timestamp,
			&provider,
			&record.Duration,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		record.Timestamp = record.Timestamp.UTC()
		record.Provider = provider.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	if err := r.attachSANs(ctx, records); err != nil {
		return nil, err
	}

	return records, nil
}

// LatestPerHost returns every host with its most recent issuance record, ordered
// by common name. The record with the greatest timestamp wins; on equal
// timestamps the greatest record id (the last inserted) wins. Hosts without
// records are included with a nil Record.
func (r *RecordRepository) LatestPerHost(ctx context.Context) ([]models.LatestRecord, error) {
	query := `
		SELECT h.id, h.common_name, h.duration, h.created_at, h.updated_at,
		       r.id, r.timestamp, r.provider, r.duration
		FROM hosts h
		LEFT JOIN records r ON r.host_id = h.id
		ORDER BY h.common_name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest records: %w", err)
	}
	defer rows.Close()

	var latest []models.LatestRecord
	index := map[int64]int{}

	for rows.Next() {
		var (
			host      models.Host
			recordID  sql.NullInt64
			timestamp sql.NullTime
			provider  sql.NullString
			duration  sql.NullInt64
		)

		err := rows.Scan(
			&host.ID,
			&host.CommonName,
			&host.Duration,
			&host.CreatedAt,
			&host.UpdatedAt,
			&recordID,
			&timestamp,
			&provider,
			&duration,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan latest record: %w", err)
		}

		i, seen := index[host.ID]
		if !seen {
			i = len(latest)
			index[host.ID] = i
			latest = append(latest, models.LatestRecord{Host: host})
		}

		if !recordID.Valid {
			continue
		}

		candidate := &models.IssuanceRecord{
			ID:        recordID.Int64,
			HostID:    host.ID,
			Timestamp: timestamp.Time.UTC(),
			Provider:  provider.String,
			Duration:  int(duration.Int64),
		}

		if newer(candidate, latest[i].Record) {
			latest[i].Record = candidate
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query latest records: %w", err)
	}

	records := make([]*models.IssuanceRecord, 0, len(latest))
	for _, l := range latest {
		if l.Record != nil {
			records = append(records, l.Record)
		}
	}
	if err := r.attachSANs(ctx, records); err != nil {
		return nil, err
	}

	return latest, nil
}

// newer reports whether candidate supersedes current
func newer(candidate, current *models.IssuanceRecord) bool {
	if current == nil {
		return true
	}
	if !candidate.Timestamp.Equal(current.Timestamp) {
		return candidate.Timestamp.After(current.Timestamp)
	}
	return candidate.ID > current.ID
}

func (r *RecordRepository) attachSANs(ctx context.Context, records []*models.IssuanceRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]int64, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}

	sans, err := NewSANRepository(r.db).ListByRecords(ctx, ids)
	if err != nil {
		return err
	}

	for _, record := range records {
		record.SANs = sans[record.ID]
	}

	return nil
}
