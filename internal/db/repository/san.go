package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/adamscao/certwatch/internal/db"
)

// sanBatchSize keeps IN (...) lists well below SQLite's bound parameter limit
const sanBatchSize = 500

// SANRepository handles subject alternative names of issuance records
type SANRepository struct {
	db db.Querier
}

// NewSANRepository creates a new SAN repository
func NewSANRepository(q db.Querier) *SANRepository {
	return &SANRepository{db: q}
}

// WithTx returns a repository bound to tx
func (r *SANRepository) WithTx(tx *sql.Tx) *SANRepository {
	return &SANRepository{db: tx}
}

// Add stores sans for a record. Pairs already present are ignored; the number
// of newly inserted rows is returned.
func (r *SANRepository) Add(ctx context.Context, recordID int64, sans []string) (int, error) {
	query := `
		INSERT INTO sans (record_id, value)
		VALUES (?, ?)
		ON CONFLICT (record_id, value) DO NOTHING
	`

	inserted := 0
	for _, san := range sans {
		result, err := r.db.ExecContext(ctx, query, recordID, san)
		if isForeignKeyViolation(err) {
			return inserted, fmt.Errorf("record id %d: %w", recordID, ErrNotFound)
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to add san: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(n)
	}

	return inserted, nil
}

// ListByRecords returns the sorted sans of every given record, keyed by record id
func (r *SANRepository) ListByRecords(ctx context.Context, recordIDs []int64) (map[int64][]string, error) {
	sans := map[int64][]string{}

	for start := 0; start < len(recordIDs); start += sanBatchSize {
		end := min(start+sanBatchSize, len(recordIDs))
		batch := recordIDs[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		query := fmt.Sprintf(`
			SELECT record_id, value
			FROM sans
			WHERE record_id IN (%s)
		`, placeholders)

		if err := r.collect(ctx, query, args, sans); err != nil {
			return nil, err
		}
	}

	for _, values := range sans {
		sort.Strings(values)
	}

	return sans, nil
}

func (r *SANRepository) collect(ctx context.Context, query string, args []any, into map[int64][]string) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to list sans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordID int64
		var value string
		if err := rows.Scan(&recordID, &value); err != nil {
			return fmt.Errorf("failed to scan san: %w", err)
		}
		into[recordID] = append(into[recordID], value)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list sans: %w", err)
	}

	return nil
}

// Count returns the number of sans stored for a record
func (r *SANRepository) Count(ctx context.Context, recordID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sans WHERE record_id = ?`, recordID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sans: %w", err)
	}

	return count, nil
}
