package queue

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"telegram-weather-bot/internal/models"
	"telegram-weather-bot/internal/trigger"
)

const (
	pollInterval = 30 * time.Second
	pollBatch    = 100

	// A claimed task reappears after the lease if its worker died with it.
	claimLease = 2 * time.Minute
)

func nowUTC() time.Time { return time.Now().UTC() }

// StartRunner polls the queue on a gocron tick and hands due tasks to a
// small worker pool. Each task is one independent unit of work; nothing
// here orders two tasks relative to each other.
func StartRunner(ctx context.Context, q *Queue, workers int) (gocron.Scheduler, error) {
	if workers < 1 {
		workers = 1
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	jobs := make(chan models.Task)
	for i := 0; i < workers; i++ {
		go worker(ctx, q, jobs)
	}

	_, err = s.NewJob(
		gocron.DurationJob(pollInterval),
		gocron.NewTask(func() {
			tasks, err := q.db.ClaimDueTasks(nowUTC(), claimLease, pollBatch)
			if err != nil {
				q.log.Error().Err(err).Msg("polling due tasks")
				return
			}
			for _, t := range tasks {
				select {
				case jobs <- t:
				case <-ctx.Done():
					return
				}
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}

func worker(ctx context.Context, q *Queue, jobs <-chan models.Task) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-jobs:
			q.run(ctx, t)
		}
	}
}

func (q *Queue) run(ctx context.Context, t models.Task) {
	h, ok := q.handlers[t.Type]
	if !ok {
		// Possibly a row left behind by an older deploy; drop it.
		q.log.Error().Str("task_type", t.Type).Int64("id", t.ID).Msg("no handler registered, dropping task")
		_ = q.db.DeleteTask(t.ID)
		return
	}

	if err := h(ctx, t.Payload); err != nil {
		q.log.Error().Err(err).Str("task_type", t.Type).Int64("id", t.ID).Msg("task failed")
	}

	q.complete(t)
}

// complete deletes a finished one-shot task, or advances a recurring one to
// its next fire time. Failed tasks complete too: retry policy does not live
// at this layer.
func (q *Queue) complete(t models.Task) {
	if t.CronExpression == "" {
		if err := q.db.DeleteTask(t.ID); err != nil {
			q.log.Error().Err(err).Int64("id", t.ID).Msg("deleting finished task")
		}
		return
	}

	next, err := trigger.NextFire(t.CronExpression)
	if err != nil {
		q.log.Error().Err(err).Int64("id", t.ID).Str("cron", t.CronExpression).
			Msg("recurring task has an unusable expression, dropping it")
		_ = q.db.DeleteTask(t.ID)
		return
	}
	if err := q.db.AdvanceTask(t.ID, next); err != nil {
		q.log.Error().Err(err).Int64("id", t.ID).Msg("advancing recurring task")
	}
}
