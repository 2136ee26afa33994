package database

import (
	"context"
	"fmt"
	"time"

	"traveler/internal/models"
)

const syncTaskColumns = `id, task_type, booking_id, payload, status, retry_count, last_error,
	created_at, processed_at, next_retry_at`

func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	if task.Status == "" {
		task.Status = models.SyncStatusPending
	}
	now := db.now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO sync_queue (task_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskType,
		task.BookingID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingSyncTasks returns due pending or retry tasks, oldest first.
func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	var tasks []models.SyncTask
	err := db.SelectContext(ctx, &tasks,
		`SELECT `+syncTaskColumns+` FROM sync_queue
		 WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
		 ORDER BY created_at ASC, id ASC LIMIT ?`,
		db.now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync tasks: %w", err)
	}
	return tasks, nil
}

func (db *DB) UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}
	if nextRetryAt != nil {
		utc := nextRetryAt.UTC()
		nextRetryAt = &utc
	}

	var (
		query string
		args  []interface{}
	)
	switch status {
	case models.SyncStatusRetry:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, id}
	case models.SyncStatusCompleted, models.SyncStatusFailed:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, db.now().UTC(), id}
	default:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update sync task status: %w", err)
	}
	return nil
}

func (db *DB) GetFailedSyncTasks(ctx context.Context) ([]models.SyncTask, error) {
	var tasks []models.SyncTask
	err := db.SelectContext(ctx, &tasks,
		`SELECT `+syncTaskColumns+` FROM sync_queue WHERE status = 'failed' ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed sync tasks: %w", err)
	}
	return tasks, nil
}

// RequeueFailedSyncTasks moves failed tasks back to pending with a fresh retry budget.
func (db *DB) RequeueFailedSyncTasks(ctx context.Context) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'pending', retry_count = 0, next_retry_at = NULL, processed_at = NULL
		 WHERE status = 'failed'`)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue sync tasks: %w", err)
	}
	return result.RowsAffected()
}
