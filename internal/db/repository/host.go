package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adamscao/certwatch/internal/db"
	"github.com/adamscao/certwatch/internal/models"
)

// HostRepository handles host data access
type HostRepository struct {
	db db.Querier
}

// NewHostRepository creates a new host repository
func NewHostRepository(q db.Querier) *HostRepository {
	return &HostRepository{db: q}
}

// WithTx returns a repository bound to tx
func (r *HostRepository) WithTx(tx *sql.Tx) *HostRepository {
	return &HostRepository{db: tx}
}

// Upsert creates the host or updates its duration, returning the host id.
// It is a single statement, so concurrent calls for one common name cannot
// create two rows.
func (r *HostRepository) Upsert(ctx context.Context, commonName string, duration int) (int64, error) {
	query := `
		INSERT INTO hosts (common_name, duration)
		VALUES (?, ?)
		ON CONFLICT (common_name) DO UPDATE
		SET duration = excluded.duration, updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, commonName, duration).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert host: %w", err)
	}

	return id, nil
}

// GetByCommonName retrieves a host by common name
func (r *HostRepository) GetByCommonName(ctx context.Context, commonName string) (*models.Host, error) {
	query := `
		SELECT id, common_name, duration, created_at, updated_at
		FROM hosts
		WHERE common_name = ?
	`

	return r.getOne(ctx, query, commonName)
}

// GetByID retrieves a host by id
func (r *HostRepository) GetByID(ctx context.Context, id int64) (*models.Host, error) {
	query := `
		SELECT id, common_name, duration, created_at, updated_at
		FROM hosts
		WHERE id = ?
	`

	return r.getOne(ctx, query, id)
}

func (r *HostRepository) getOne(ctx context.Context, query string, arg any) (*models.Host, error) {
	host := &models.Host{}

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&host.ID,
		&host.CommonName,
		&host.Duration,
		&host.CreatedAt,
		&host.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("host %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	return host, nil
}

// List lists all hosts ordered by common name
func (r *HostRepository) List(ctx context.Context) ([]*models.Host, error) {
	query := `
		SELECT id, common_name, duration, created_at, updated_at
		FROM hosts
		ORDER BY common_name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []*models.Host

	for rows.Next() {
		host := &models.Host{}
		err := rows.Scan(
			&host.ID,
			&host.CommonName,
			&host.Duration,
			&host.CreatedAt,
			&host.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}

		hosts = append(hosts, host)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}

	return hosts, nil
}

// Count returns the number of hosts with the given common name, or all hosts when empty
func (r *HostRepository) Count(ctx context.Context, commonName string) (int, error) {
	query := `SELECT COUNT(*) FROM hosts`
	args := []any{}
	if commonName != "" {
		query += ` WHERE common_name = ?`
		args = append(args, commonName)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count hosts: %w", err)
	}

	return count, nil
}
