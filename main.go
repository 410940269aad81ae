package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-weather-bot/internal/command"
	"telegram-weather-bot/internal/config"
	"telegram-weather-bot/internal/processor"
	"telegram-weather-bot/internal/queue"
	"telegram-weather-bot/internal/scheduler"
	"telegram-weather-bot/internal/storage"
	"telegram-weather-bot/internal/telegram"
	"telegram-weather-bot/internal/utils"
	"telegram-weather-bot/internal/weather"
)

func main() {
	cfg, err := config.Load()
	utils.Must(err)

	logger := newLogger(cfg.LogLevel)

	db, err := storage.New(cfg.DatabasePath)
	utils.Must(err)
	defer db.Close()

	api, err := telegram.New(cfg.TelegramToken)
	utils.Must(err)

	owm := weather.New(cfg.WeatherToken)

	q := queue.New(db, logger.With().Str("component", "queue").Logger())

	coord, err := scheduler.New(db, q, owm, api, logger.With().Str("component", "scheduler").Logger())
	utils.Must(err)

	svc, err := processor.NewService(processor.Deps{
		Repo:      db,
		Messenger: api,
		Weather:   owm,
		Scheduler: coord,
		Log:       logger.With().Str("component", "processor").Logger(),
	}, command.Parser{Mention: cfg.BotName})
	utils.Must(err)

	utils.Must(q.Register(processor.TaskType, svc.HandleUpdate))
	utils.Must(q.Register(scheduler.DeliveryTaskType, coord.HandleDelivery))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner, err := queue.StartRunner(ctx, q, cfg.QueueWorkers)
	utils.Must(err)
	defer func() { _ = runner.Shutdown() }()

	logger.Info().Msg("bot started")

	updates := api.Updates(60)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return
		case upd := <-updates:
			// Updates without a message body or text carry nothing the
			// state machine can act on.
			if upd.Message == nil || upd.Message.Text == "" || upd.Message.From == nil {
				logger.Debug().Int("update_id", upd.UpdateID).Msg("dropping update without message text")
				continue
			}

			username := upd.Message.From.FirstName
			if upd.Message.From.UserName != "" {
				username = "@" + upd.Message.From.UserName
			}

			pl := processor.UpdatePayload{
				ChatID:    upd.Message.Chat.ID,
				UserID:    upd.Message.From.ID,
				MessageID: upd.Message.MessageID,
				Text:      upd.Message.Text,
				Username:  username,
			}
			if err := q.Enqueue(processor.TaskType, pl); err != nil {
				logger.Error().Err(err).Int64("chat_id", pl.ChatID).Msg("enqueueing update")
			}
		}
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
