package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adamscao/certwatch/internal/db"
	"github.com/adamscao/certwatch/internal/models"
)

// NotificationRepository handles the notification delivery log
type NotificationRepository struct {
	db db.Querier
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(q db.Querier) *NotificationRepository {
	return &NotificationRepository{db: q}
}

// Create creates a new notification log entry
func (r *NotificationRepository) Create(ctx context.Context, log *models.NotificationLog) error {
	query := `
		INSERT INTO notifications (sent_at, sink, expired_count, due_count, hosts, success, error_msg)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	success := 0
	if log.Success {
		success = 1
	}

	if log.SentAt.IsZero() {
		log.SentAt = time.Now()
	}
	log.SentAt = log.SentAt.UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, query,
		log.SentAt,
		log.Sink,
		log.ExpiredCount,
		log.DueCount,
		log.Hosts,
		success,
		sql.NullString{String: log.ErrorMsg, Valid: log.ErrorMsg != ""},
	)
	if err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id

	return nil
}

// List lists the most recent notification log entries
func (r *NotificationRepository) List(ctx context.Context, limit int) ([]*models.NotificationLog, error) {
	query := `
		SELECT id, sent_at, sink, expired_count, due_count, hosts, success, error_msg
		FROM notifications
		ORDER BY sent_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.NotificationLog

	for rows.Next() {
		log := &models.NotificationLog{}
		var success int
		var errorMsg sql.NullString

		err := rows.Scan(
			&log.ID,
			&log.SentAt,
			&log.Sink,
			&log.ExpiredCount,
			&log.DueCount,
			&log.Hosts,
			&success,
			&errorMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification log: %w", err)
		}

		log.Success = success == 1
		if errorMsg.Valid {
			log.ErrorMsg = errorMsg.String
		}

		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}

	return logs, nil
}

// DeleteOld deletes notification log entries older than the given date
func (r *NotificationRepository) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE sent_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notification logs: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n, nil
}
