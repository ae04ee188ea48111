package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejolo311/CDZGR/internal/models"

	"github.com/jackc/pgx/v5"
)

// enqueueNotificationTx inserts an outbox row inside the caller's
// transaction, so the job exists iff the state transition committed.
func enqueueNotificationTx(ctx context.Context, tx pgx.Tx, job models.NotificationJob) error {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return err
	}
	runAt := job.RunAt
	if runAt.IsZero() {
		runAt = time.Now()
	}
	_, err = tx.Exec(ctx, `
INSERT INTO notification_jobs (kind, reference, run_at, payload, status)
VALUES ($1, $2::uuid, $3, $4, 'pending');`,
		job.Kind, job.Reference, runAt, payload)
	return err
}

// FetchDueNotificationJobs claims up to limit due jobs, marking them
// processing. SKIP LOCKED keeps concurrent workers from double-sending.
func (r *Repository) FetchDueNotificationJobs(ctx context.Context, limit int) ([]models.NotificationJob, error) {
	query := `
WITH cte AS (
	SELECT id
	FROM notification_jobs
	WHERE status = 'pending' AND run_at <= now()
	ORDER BY run_at ASC
	LIMIT $1
	FOR UPDATE SKIP LOCKED
)
UPDATE notification_jobs n
SET status = 'processing', updated_at = now()
FROM cte
WHERE n.id = cte.id
RETURNING n.id, n.kind, n.reference::text, n.run_at, n.payload, n.status, n.attempts, COALESCE(n.last_error, '');`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]models.NotificationJob, 0)
	for rows.Next() {
		var job models.NotificationJob
		var payloadBytes []byte
		if err := rows.Scan(&job.ID, &job.Kind, &job.Reference, &job.RunAt, &payloadBytes, &job.Status, &job.Attempts, &job.LastError); err != nil {
			return nil, err
		}
		if len(payloadBytes) > 0 {
			_ = json.Unmarshal(payloadBytes, &job.Payload)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateNotificationJobStatus records the outcome of a delivery
// attempt; nextRun reschedules a retried job.
func (r *Repository) UpdateNotificationJobStatus(ctx context.Context, jobID int64, status string, attempts int, lastError string, nextRun *time.Time) error {
	query := `UPDATE notification_jobs SET status = $1, attempts = $2, last_error = $3, run_at = COALESCE($4, run_at), updated_at = now() WHERE id = $5`
	_, err := r.pool.Exec(ctx, query, status, attempts, nullString(lastError), nextRun, jobID)
	return err
}

// RequeueStaleProcessing returns jobs stuck in processing (a crashed
// worker) to the pending queue.
func (r *Repository) RequeueStaleProcessing(ctx context.Context, staleAfter time.Duration) error {
	query := `UPDATE notification_jobs SET status = 'pending', updated_at = now() WHERE status = 'processing' AND updated_at <= now() - $1::interval`
	interval := fmt.Sprintf("%d seconds", int(staleAfter.Seconds()))
	_, err := r.pool.Exec(ctx, query, interval)
	return err
}

// CountNotificationJobs reports how many outbox rows exist for a
// reference and kind. Used by reconciliation tests.
func (r *Repository) CountNotificationJobs(ctx context.Context, reference, kind string) (int, error) {
	row := r.pool.QueryRow(ctx, `
SELECT count(*) FROM notification_jobs WHERE reference = $1::uuid AND kind = $2;`, reference, kind)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func nullString(val string) interface{} {
	if val == "" {
		return nil
	}
	return val
}
