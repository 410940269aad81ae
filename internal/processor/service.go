package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"telegram-weather-bot/internal/command"
)

// TaskType is the queue tag for inbound update processing.
const TaskType = "process_update"

// UpdatePayload is the persisted form of one inbound message. The schema
// must stay backward-compatible: queued updates survive restarts.
type UpdatePayload struct {
	ChatID    int64  `json:"chat_id"`
	UserID    int64  `json:"user_id"`
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
	Username  string `json:"username"`
}

// Service is the queue handler for TaskType: one Processor per payload.
type Service struct {
	deps   Deps
	parser command.Parser
}

func NewService(deps Deps, parser command.Parser) (*Service, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Service{deps: deps, parser: parser}, nil
}

// HandleUpdate runs the state machine for one message. Processing errors
// are compensated with a best-effort revert to Initial and swallowed: the
// queue must not retry a half-applied conversation step.
func (s *Service) HandleUpdate(ctx context.Context, payload json.RawMessage) error {
	var pl UpdatePayload
	if err := json.Unmarshal(payload, &pl); err != nil {
		return fmt.Errorf("processor: decode update payload: %w", err)
	}

	chat, err := s.deps.Repo.FindOrCreateChat(pl.ChatID, pl.UserID)
	if err != nil {
		return fmt.Errorf("processor: load chat: %w", err)
	}

	proc, err := New(s.deps, chat, s.parser.Parse(pl.Text), pl.Text, pl.MessageID, pl.Username)
	if err != nil {
		return err
	}

	deleted, err := proc.Process(ctx)
	if err != nil {
		s.deps.Log.Error().Err(err).Int64("chat_id", pl.ChatID).Msg("processing update failed, reverting")
		if rerr := proc.RevertState(); rerr != nil {
			s.deps.Log.Error().Err(rerr).Int64("chat_id", pl.ChatID).Msg("revert to initial failed")
		}
		return nil
	}

	// Unscheduled forecasts keep a queued job each until removed here. A
	// removal failure leaves a dangling job; it is logged, not repaired.
	for _, f := range deleted {
		if err := s.deps.Scheduler.RemoveDelivery(f); err != nil {
			s.deps.Log.Error().Err(err).Int64("forecast_id", f.ID).Int64("chat_id", f.ChatID).
				Msg("queued delivery not removed, job may fire again")
		}
	}
	return nil
}
