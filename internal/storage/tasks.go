package storage

import (
	"time"

	"telegram-weather-bot/internal/models"
)

// ---------- task queue ------------------------------------------------------

// InsertTask enqueues a one-shot task due at scheduledAt.
func (d *DB) InsertTask(taskType string, payload []byte, scheduledAt time.Time) error {
	_, err := d.Exec(`
        INSERT INTO tasks (task_type, payload, scheduled_at) VALUES (?,?,?)`,
		taskType, string(payload), scheduledAt.Unix())
	return err
}

// UpsertRecurringTask enqueues a recurring task keyed by (taskType,
// metadata), replacing any previous entry under the same key.
func (d *DB) UpsertRecurringTask(taskType string, payload []byte, metadata, cronExpression string, next time.Time) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks WHERE task_type=? AND metadata=?`, taskType, metadata); err != nil {
		return err
	}
	if _, err := tx.Exec(`
        INSERT INTO tasks (task_type, payload, metadata, cron_expression, scheduled_at)
        VALUES (?,?,?,?,?)`,
		taskType, string(payload), metadata, cronExpression, next.Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveTasksByMetadata drops every queued task under the given key and
// reports how many rows went away.
func (d *DB) RemoveTasksByMetadata(taskType, metadata string) (int64, error) {
	res, err := d.Exec(`DELETE FROM tasks WHERE task_type=? AND metadata=?`, taskType, metadata)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClaimDueTasks fetches tasks due at now and pushes their scheduled_at
// forward by lease, so a slow worker does not get the same task handed out
// again on the next poll. Individually atomic, like every other operation
// here; there is no cross-operation transaction for callers.
func (d *DB) ClaimDueTasks(now time.Time, lease time.Duration, limit int) ([]models.Task, error) {
	tx, err := d.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
        SELECT id, task_type, payload, metadata, cron_expression, scheduled_at
        FROM tasks WHERE scheduled_at<=? ORDER BY scheduled_at, id LIMIT ?`,
		now.Unix(), limit)
	if err != nil {
		return nil, err
	}

	var res []models.Task
	for rows.Next() {
		var (
			t       models.Task
			payload string
			ts      int64
		)
		if err := rows.Scan(&t.ID, &t.Type, &payload, &t.Metadata, &t.CronExpression, &ts); err != nil {
			rows.Close()
			return nil, err
		}
		t.Payload = []byte(payload)
		t.ScheduledAt = time.Unix(ts, 0).UTC()
		res = append(res, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	claimed := now.Add(lease).Unix()
	for _, t := range res {
		if _, err := tx.Exec(`UPDATE tasks SET scheduled_at=? WHERE id=?`, claimed, t.ID); err != nil {
			return nil, err
		}
	}
	return res, tx.Commit()
}

// DeleteTask removes a finished one-shot task.
func (d *DB) DeleteTask(id int64) error {
	_, err := d.Exec(`DELETE FROM tasks WHERE id=?`, id)
	return err
}

// AdvanceTask moves a recurring task to its next fire time.
func (d *DB) AdvanceTask(id int64, next time.Time) error {
	_, err := d.Exec(`UPDATE tasks SET scheduled_at=? WHERE id=?`, next.Unix(), id)
	return err
}
