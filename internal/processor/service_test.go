package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"telegram-weather-bot/internal/command"
	"telegram-weather-bot/internal/models"
)

func payload(t *testing.T, pl UpdatePayload) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(pl)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return b
}

func newService(t *testing.T, f *fixture) *Service {
	t.Helper()
	s, err := NewService(f.deps(), command.Parser{Mention: "@SomeWeatherBot"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestHandleUpdateRunsTheStateMachine(t *testing.T) {
	t.Parallel()
	f := newFixture(models.Chat{ChatID: 7, UserID: 9, State: models.StateInitial})
	s := newService(t, f)

	err := s.HandleUpdate(context.Background(), payload(t, UpdatePayload{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "/find_city", Username: "@someone",
	}))
	if err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if f.repo.state != models.StateFindCity {
		t.Fatalf("state = %q, want find_city", f.repo.state)
	}
}

func TestHandleUpdateRevertsOnFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(models.Chat{ChatID: 7, UserID: 9, State: models.StateFindCity})
	f.repo.searchErr = errors.New("db gone")
	s := newService(t, f)

	err := s.HandleUpdate(context.Background(), payload(t, UpdatePayload{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "Tokyo", Username: "@someone",
	}))
	if err != nil {
		t.Fatalf("HandleUpdate must swallow processing errors, got %v", err)
	}
	if f.repo.state != models.StateInitial {
		t.Fatalf("state = %q, want reverted to initial", f.repo.state)
	}
	if len(f.messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want the single cancellation notice", len(f.messenger.sent))
	}
}

func TestHandleUpdateRemovesUnscheduledDeliveries(t *testing.T) {
	t.Parallel()
	f := newFixture(models.Chat{ChatID: 7, UserID: 9, State: models.StateInitial})
	f.repo.deleted = []models.Forecast{
		{ID: 1, ChatID: 7, UserID: 9, CityID: 1, CronExpression: "0 30 5 * * * *"},
		{ID: 2, ChatID: 7, UserID: 9, CityID: 2, CronExpression: "0 0 12 * * * *"},
	}
	s := newService(t, f)

	err := s.HandleUpdate(context.Background(), payload(t, UpdatePayload{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "/unschedule", Username: "@someone",
	}))
	if err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if len(f.scheduler.removed) != 2 {
		t.Fatalf("removed %d deliveries, want 2", len(f.scheduler.removed))
	}
}

func TestHandleUpdateToleratesRemovalFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(models.Chat{ChatID: 7, UserID: 9, State: models.StateInitial})
	f.repo.deleted = []models.Forecast{{ID: 1, ChatID: 7, UserID: 9, CityID: 1, CronExpression: "0 30 5 * * * *"}}
	f.scheduler.removeErr = errors.New("queue gone")
	s := newService(t, f)

	// The forecast rows are already gone; a dangling job is logged, not an error.
	err := s.HandleUpdate(context.Background(), payload(t, UpdatePayload{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "/unschedule", Username: "@someone",
	}))
	if err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
}

func TestHandleUpdateRejectsBadPayload(t *testing.T) {
	t.Parallel()
	f := newFixture(models.Chat{State: models.StateInitial})
	s := newService(t, f)

	if err := s.HandleUpdate(context.Background(), json.RawMessage(`{not json`)); err == nil {
		t.Fatal("expected a decode error")
	}
}
