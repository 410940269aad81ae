// Package queue runs persisted tasks. Each task row carries a stable type
// tag; the tag selects the payload schema and the registered handler, so
// queued work survives restarts and redeploys as long as payloads stay
// backward-compatible.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-weather-bot/internal/storage"
	"telegram-weather-bot/internal/trigger"
)

// HandlerFunc executes one task. A returned error is logged; the queue does
// not retry at this layer.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

type Queue struct {
	db       *storage.DB
	log      zerolog.Logger
	handlers map[string]HandlerFunc
}

func New(db *storage.DB, log zerolog.Logger) *Queue {
	return &Queue{
		db:       db,
		log:      log,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds a task type tag to its handler. Registration happens once
// at bootstrap, before the runner starts.
func (q *Queue) Register(taskType string, h HandlerFunc) error {
	if taskType == "" || h == nil {
		return fmt.Errorf("queue: task type and handler are required")
	}
	if _, dup := q.handlers[taskType]; dup {
		return fmt.Errorf("queue: duplicate task type %q", taskType)
	}
	q.handlers[taskType] = h
	return nil
}

// Enqueue persists a one-shot task due immediately.
func (q *Queue) Enqueue(taskType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue: encode %s payload: %w", taskType, err)
	}
	return q.db.InsertTask(taskType, b, nowUTC())
}

// UpsertRecurring persists a recurring task keyed by (taskType, metadata),
// first firing at the expression's next fire time. An existing entry under
// the same key is replaced.
func (q *Queue) UpsertRecurring(taskType string, payload any, metadata, cronExpression string) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue: encode %s payload: %w", taskType, err)
	}
	next, err := trigger.NextFire(cronExpression)
	if err != nil {
		return fmt.Errorf("queue: %s: %w", taskType, err)
	}
	return q.db.UpsertRecurringTask(taskType, b, metadata, cronExpression, next)
}

// RemoveByMetadata drops queued tasks under the given key.
func (q *Queue) RemoveByMetadata(taskType, metadata string) error {
	n, err := q.db.RemoveTasksByMetadata(taskType, metadata)
	if err != nil {
		return err
	}
	q.log.Debug().Str("task_type", taskType).Int64("removed", n).Msg("tasks removed by metadata")
	return nil
}
