// Package storage is the sqlite access layer: chats, forecasts, the city
// catalogue and the task queue all live in one database file.
package storage

import (
	"database/sql"
	"embed"
	"errors"

	_ "modernc.org/sqlite"

	"telegram-weather-bot/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// ErrCityNotFound reports a city lookup that matched nothing.
var ErrCityNotFound = errors.New("storage: city not found")

type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err = migrate(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// ---------- chats -----------------------------------------------------------

// FindOrCreateChat returns the row for (chatID, userID), inserting a fresh
// one in the initial state on first contact.
func (d *DB) FindOrCreateChat(chatID, userID int64) (models.Chat, error) {
	_, err := d.Exec(`
        INSERT INTO chats (chat_id, user_id, state) VALUES (?,?,?)
        ON CONFLICT(chat_id, user_id) DO NOTHING`,
		chatID, userID, models.StateInitial)
	if err != nil {
		return models.Chat{}, err
	}

	var (
		c      models.Chat
		offset sql.NullInt64
		city   sql.NullInt64
	)
	err = d.QueryRow(`
        SELECT chat_id, user_id, state, pending_kind, pending_value, utc_offset, default_city_id
        FROM chats WHERE chat_id=? AND user_id=?`, chatID, userID,
	).Scan(&c.ChatID, &c.UserID, &c.State, &c.Pending.Kind, &c.Pending.Value, &offset, &city)
	if err != nil {
		return models.Chat{}, err
	}
	if offset.Valid {
		o := int(offset.Int64)
		c.Offset = &o
	}
	if city.Valid {
		id := city.Int64
		c.DefaultCityID = &id
	}
	return c, nil
}

func (d *DB) ModifyState(chatID, userID int64, state models.ClientState) error {
	_, err := d.Exec(`UPDATE chats SET state=? WHERE chat_id=? AND user_id=?`,
		state, chatID, userID)
	return err
}

func (d *DB) ModifyPending(chatID, userID int64, p models.Pending) error {
	_, err := d.Exec(`UPDATE chats SET pending_kind=?, pending_value=? WHERE chat_id=? AND user_id=?`,
		p.Kind, p.Value, chatID, userID)
	return err
}

func (d *DB) ModifyOffset(chatID, userID int64, offset int) error {
	_, err := d.Exec(`UPDATE chats SET utc_offset=? WHERE chat_id=? AND user_id=?`,
		offset, chatID, userID)
	return err
}

func (d *DB) ModifyDefaultCity(chatID, userID, cityID int64) error {
	_, err := d.Exec(`UPDATE chats SET default_city_id=? WHERE chat_id=? AND user_id=?`,
		cityID, chatID, userID)
	return err
}
