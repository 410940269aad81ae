package queue

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-weather-bot/internal/storage"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, zerolog.Nop())
}

func claimOne(t *testing.T, q *Queue) func() []string {
	t.Helper()
	return func() []string {
		tasks, err := q.db.ClaimDueTasks(nowUTC().Add(time.Second), claimLease, pollBatch)
		if err != nil {
			t.Fatalf("ClaimDueTasks: %v", err)
		}
		types := make([]string, len(tasks))
		for i, task := range tasks {
			types[i] = task.Type
		}
		return types
	}
}

func TestRegisterRejectsDuplicatesAndEmpty(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	noop := func(ctx context.Context, _ json.RawMessage) error { return nil }
	if err := q.Register("process_update", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := q.Register("process_update", noop); err == nil {
		t.Fatal("expected an error on duplicate registration")
	}
	if err := q.Register("", noop); err == nil {
		t.Fatal("expected an error on empty task type")
	}
	if err := q.Register("schedule_weather", nil); err == nil {
		t.Fatal("expected an error on nil handler")
	}
}

func TestOneShotTaskRunsOnceAndIsDeleted(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	var got []string
	err := q.Register("process_update", func(ctx context.Context, pl json.RawMessage) error {
		got = append(got, string(pl))
		return nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := q.Enqueue("process_update", map[string]int64{"chat_id": 7}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	tasks, err := q.db.ClaimDueTasks(nowUTC().Add(time.Second), claimLease, pollBatch)
	if err != nil {
		t.Fatalf("ClaimDueTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("claimed %d tasks, want 1", len(tasks))
	}
	q.run(context.Background(), tasks[0])

	if len(got) != 1 || got[0] != `{"chat_id":7}` {
		t.Fatalf("handler saw %v", got)
	}
	// Finished one-shot tasks are gone, even after the lease expires.
	if left := claimOne(t, q)(); len(left) != 0 {
		t.Fatalf("%d tasks still queued after completion", len(left))
	}
}

func TestFailedOneShotTaskIsNotRetried(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	_ = q.Register("process_update", func(ctx context.Context, _ json.RawMessage) error {
		return errors.New("handler blew up")
	})
	if err := q.Enqueue("process_update", map[string]int64{"chat_id": 7}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	tasks, _ := q.db.ClaimDueTasks(nowUTC().Add(time.Second), claimLease, pollBatch)
	if len(tasks) != 1 {
		t.Fatalf("claimed %d tasks, want 1", len(tasks))
	}
	q.run(context.Background(), tasks[0])

	if left := claimOne(t, q)(); len(left) != 0 {
		t.Fatal("failed one-shot task must still be deleted, not retried")
	}
}

func TestUnknownTaskTypeIsDropped(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	if err := q.db.InsertTask("stale_type", []byte(`{}`), nowUTC().Add(-time.Minute)); err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	tasks, _ := q.db.ClaimDueTasks(nowUTC(), claimLease, pollBatch)
	if len(tasks) != 1 {
		t.Fatalf("claimed %d tasks, want 1", len(tasks))
	}
	q.run(context.Background(), tasks[0])

	if left := claimOne(t, q)(); len(left) != 0 {
		t.Fatal("task without a handler must be dropped")
	}
}

func TestRecurringTaskAdvancesToNextFire(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	var runs int
	_ = q.Register("schedule_weather", func(ctx context.Context, _ json.RawMessage) error {
		runs++
		return nil
	})

	meta := `{"cron_expression":"0 30 5 * * * *","chat_id":7,"user_id":9,"city_id":42}`
	if err := q.UpsertRecurring("schedule_weather", map[string]int64{"city_id": 42}, meta, "0 30 5 * * * *"); err != nil {
		t.Fatalf("UpsertRecurring: %v", err)
	}

	// The row is due at the trigger's next fire, at most a day out.
	tasks, err := q.db.ClaimDueTasks(nowUTC().Add(25*time.Hour), claimLease, pollBatch)
	if err != nil {
		t.Fatalf("ClaimDueTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("claimed %d tasks, want 1", len(tasks))
	}
	q.run(context.Background(), tasks[0])

	if runs != 1 {
		t.Fatalf("handler ran %d times, want 1", runs)
	}
	// Completion re-arms the row for the next fire instead of deleting it.
	again, err := q.db.ClaimDueTasks(nowUTC().Add(49*time.Hour), claimLease, pollBatch)
	if err != nil {
		t.Fatalf("ClaimDueTasks: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("recurring task rows = %d after completion, want 1", len(again))
	}
}

func TestUpsertRecurringRejectsBadExpression(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	err := q.UpsertRecurring("schedule_weather", struct{}{}, "key", "0 30 24 * * * *")
	if err == nil {
		t.Fatal("expected an error for an unevaluable trigger")
	}
	if left := claimOne(t, q)(); len(left) != 0 {
		t.Fatal("nothing may be queued for an unevaluable trigger")
	}
}

func TestRemoveByMetadata(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	if err := q.UpsertRecurring("schedule_weather", struct{}{}, "key-a", "0 30 5 * * * *"); err != nil {
		t.Fatalf("UpsertRecurring: %v", err)
	}
	if err := q.UpsertRecurring("schedule_weather", struct{}{}, "key-b", "0 0 12 * * * *"); err != nil {
		t.Fatalf("UpsertRecurring: %v", err)
	}

	if err := q.RemoveByMetadata("schedule_weather", "key-a"); err != nil {
		t.Fatalf("RemoveByMetadata: %v", err)
	}
	tasks, err := q.db.ClaimDueTasks(nowUTC().Add(25*time.Hour), claimLease, pollBatch)
	if err != nil {
		t.Fatalf("ClaimDueTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Metadata != "key-b" {
		t.Fatalf("remaining tasks = %+v, want only key-b", tasks)
	}
}
