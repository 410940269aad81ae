// Package scheduler owns the lifecycle of recurring weather deliveries:
// creating them from a user-local time, keeping them consistent when the
// user's UTC offset changes, and removing their queued jobs when they are
// unscheduled.
package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-weather-bot/internal/models"
	"telegram-weather-bot/internal/trigger"
)

// DeliveryTaskType is the queue tag for recurring weather deliveries.
const DeliveryTaskType = "schedule_weather"

// DeliveryPayload doubles as the task payload and, marshalled, as the
// metadata key queued deliveries are matched by. Field order is fixed, so
// the encoded form is stable across processes.
type DeliveryPayload struct {
	CronExpression string `json:"cron_expression"`
	ChatID         int64  `json:"chat_id"`
	UserID         int64  `json:"user_id"`
	CityID         int64  `json:"city_id"`
}

// MetadataKey is the (triggerExpr, chatId, userId, cityId) job key.
func (p DeliveryPayload) MetadataKey() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// Store is the slice of the repository the coordinator needs.
type Store interface {
	GetForecastsByUser(chatID, userID int64) ([]models.Forecast, error)
	UpdateForecast(id int64, cronExpression string, next time.Time) error
	UpdateOrInsertForecast(chatID, userID, cityID int64, cronExpression string, next time.Time) error
	SearchCityByID(id int64) (models.City, error)
}

// Jobs is the queue surface the coordinator drives.
type Jobs interface {
	UpsertRecurring(taskType string, payload any, metadata, cronExpression string) error
	RemoveByMetadata(taskType, metadata string) error
}

type Coordinator struct {
	store   Store
	jobs    Jobs
	weather WeatherClient
	api     Messenger
	log     zerolog.Logger
}

func New(store Store, jobs Jobs, weather WeatherClient, api Messenger, log zerolog.Logger) (*Coordinator, error) {
	if store == nil || jobs == nil || weather == nil || api == nil {
		return nil, errors.New("scheduler: store, jobs, weather and api are all required")
	}
	return &Coordinator{store: store, jobs: jobs, weather: weather, api: api, log: log}, nil
}

// Schedule turns (local hour, minutes, the chat's offset) into a stored
// forecast and a queued recurring delivery. The chat must have an offset.
func (c *Coordinator) Schedule(chat models.Chat, cityID int64, hour, minutes int) error {
	if chat.Offset == nil {
		return errors.New("scheduler: chat has no offset set")
	}

	expr := trigger.Build(minutes, trigger.UTCHour(hour, *chat.Offset))
	next, err := trigger.NextFire(expr)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	// A prior schedule for the same city queued its job under the old
	// expression. The job key embeds the expression, so the upsert below
	// would not replace it and the stale job would keep firing.
	existing, err := c.store.GetForecastsByUser(chat.ChatID, chat.UserID)
	if err != nil {
		return fmt.Errorf("scheduler: load forecasts: %w", err)
	}
	for _, f := range existing {
		if f.CityID != cityID || f.CronExpression == expr {
			continue
		}
		old := DeliveryPayload{CronExpression: f.CronExpression, ChatID: f.ChatID, UserID: f.UserID, CityID: f.CityID}
		if err := c.jobs.RemoveByMetadata(DeliveryTaskType, old.MetadataKey()); err != nil {
			return fmt.Errorf("scheduler: remove stale delivery: %w", err)
		}
	}

	if err := c.store.UpdateOrInsertForecast(chat.ChatID, chat.UserID, cityID, expr, next); err != nil {
		return fmt.Errorf("scheduler: persist forecast: %w", err)
	}

	pl := DeliveryPayload{CronExpression: expr, ChatID: chat.ChatID, UserID: chat.UserID, CityID: cityID}
	if err := c.jobs.UpsertRecurring(DeliveryTaskType, pl, pl.MetadataKey(), expr); err != nil {
		return fmt.Errorf("scheduler: enqueue delivery: %w", err)
	}
	return nil
}

// Reschedule re-derives every forecast of the chat under newOffset. Only
// the UTC trigger is stored, so each one is decoded back to the user-local
// hour under the chat's previous offset and re-encoded under the new one.
//
// Forecasts are processed independently, not as one transaction: an error
// partway leaves the earlier ones on the new offset and the rest on the
// old one. The caller reverts the conversation, not the data.
func (c *Coordinator) Reschedule(chat models.Chat, newOffset int) error {
	forecasts, err := c.store.GetForecastsByUser(chat.ChatID, chat.UserID)
	if err != nil {
		return fmt.Errorf("scheduler: load forecasts: %w", err)
	}

	previous := 0
	if chat.Offset != nil {
		previous = *chat.Offset
	}

	for _, f := range forecasts {
		minutes, oldHourUTC, err := trigger.Decode(f.CronExpression)
		if err != nil {
			return fmt.Errorf("scheduler: forecast %d: %w", f.ID, err)
		}

		localHour := trigger.LocalHour(oldHourUTC, previous)
		expr := trigger.Build(minutes, trigger.UTCHour(localHour, newOffset))
		next, err := trigger.NextFire(expr)
		if err != nil {
			return fmt.Errorf("scheduler: forecast %d: %w", f.ID, err)
		}

		if err := c.store.UpdateForecast(f.ID, expr, next); err != nil {
			return fmt.Errorf("scheduler: forecast %d: %w", f.ID, err)
		}

		// Keep the queued job in step with the rewritten trigger; its key
		// contains the expression, so it is a remove-and-requeue.
		old := DeliveryPayload{CronExpression: f.CronExpression, ChatID: f.ChatID, UserID: f.UserID, CityID: f.CityID}
		if err := c.jobs.RemoveByMetadata(DeliveryTaskType, old.MetadataKey()); err != nil {
			return fmt.Errorf("scheduler: forecast %d: %w", f.ID, err)
		}
		pl := DeliveryPayload{CronExpression: expr, ChatID: f.ChatID, UserID: f.UserID, CityID: f.CityID}
		if err := c.jobs.UpsertRecurring(DeliveryTaskType, pl, pl.MetadataKey(), expr); err != nil {
			return fmt.Errorf("scheduler: forecast %d: %w", f.ID, err)
		}
	}
	return nil
}

// RemoveDelivery drops the queued job matching a deleted forecast. The
// forecast row is already gone when this runs; a failure here leaves a
// dangling job that fires until its next poll, which the caller logs.
func (c *Coordinator) RemoveDelivery(f models.Forecast) error {
	pl := DeliveryPayload{CronExpression: f.CronExpression, ChatID: f.ChatID, UserID: f.UserID, CityID: f.CityID}
	return c.jobs.RemoveByMetadata(DeliveryTaskType, pl.MetadataKey())
}
