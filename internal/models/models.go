package models

import (
	"fmt"
	"time"
)

// PendingKind tags the scratch value a chat holds between steps of a
// multi-message dialogue.
type PendingKind string

const (
	PendingNone   PendingKind = ""
	PendingSearch PendingKind = "search"  // city search text, waiting for an ordinal
	PendingCityID PendingKind = "city_id" // chosen city id, waiting for a delivery time
)

// Pending is the transient per-chat scratch value. The kind states what the
// value means instead of leaving that implicit in the conversation state.
type Pending struct {
	Kind  PendingKind `db:"pending_kind"`
	Value string      `db:"pending_value"`
}

// Chat is the persisted per-conversation record, one row per (chat, user).
type Chat struct {
	ChatID        int64       `db:"chat_id"`
	UserID        int64       `db:"user_id"`
	State         ClientState `db:"state"`
	Pending       Pending
	Offset        *int   `db:"utc_offset"` // UTC offset in whole hours, [-11, 12]
	DefaultCityID *int64 `db:"default_city_id"`
}

type Coord struct {
	Lat float64 `db:"lat" json:"lat"`
	Lon float64 `db:"lon" json:"lon"`
}

// City is a read-only row from the city catalogue.
type City struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	State   string `db:"state"` // optional province, empty when absent
	Country string `db:"country"`
	Coord   Coord
}

// Display renders the city the way search results list it.
func (c City) Display() string {
	if c.State == "" {
		return fmt.Sprintf("%s,%s", c.Name, c.Country)
	}
	return fmt.Sprintf("%s,%s,%s", c.Name, c.Country, c.State)
}

// Forecast is a persisted recurring weather-delivery definition.
type Forecast struct {
	ID             int64     `db:"id"`
	ChatID         int64     `db:"chat_id"`
	UserID         int64     `db:"user_id"`
	CityID         int64     `db:"city_id"`
	CronExpression string    `db:"cron_expression"` // 7-field "0 {minutes} {hourUtc} * * * *"
	NextDelivery   time.Time `db:"next_delivery"`
}

// Task is a persisted queue entry. Recurring tasks carry a cron expression
// plus a metadata key; one-shot tasks carry neither.
type Task struct {
	ID             int64     `db:"id"`
	Type           string    `db:"task_type"`
	Payload        []byte    `db:"payload"`
	Metadata       string    `db:"metadata"`
	CronExpression string    `db:"cron_expression"`
	ScheduledAt    time.Time `db:"scheduled_at"`
}
