package storage

import (
	"database/sql"
	"time"

	"telegram-weather-bot/internal/models"
)

// ---------- forecasts -------------------------------------------------------

func (d *DB) GetForecastsByUser(chatID, userID int64) ([]models.Forecast, error) {
	rows, err := d.Query(`
        SELECT id, chat_id, user_id, city_id, cron_expression, next_delivery
        FROM forecasts WHERE chat_id=? AND user_id=? ORDER BY id`, chatID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanForecasts(rows)
}

func (d *DB) UpdateForecast(id int64, cronExpression string, next time.Time) error {
	_, err := d.Exec(`UPDATE forecasts SET cron_expression=?, next_delivery=? WHERE id=?`,
		cronExpression, next.Unix(), id)
	return err
}

// UpdateOrInsertForecast keeps one delivery per (chat, user, city): a second
// schedule for the same city replaces the previous time.
func (d *DB) UpdateOrInsertForecast(chatID, userID, cityID int64, cronExpression string, next time.Time) error {
	_, err := d.Exec(`
        INSERT INTO forecasts (chat_id, user_id, city_id, cron_expression, next_delivery)
        VALUES (?,?,?,?,?)
        ON CONFLICT(chat_id, user_id, city_id) DO UPDATE SET
            cron_expression=excluded.cron_expression,
            next_delivery=excluded.next_delivery`,
		chatID, userID, cityID, cronExpression, next.Unix())
	return err
}

// DeleteForecasts removes every forecast owned by (chat, user) and returns
// the deleted rows so the caller can clean up the matching queued jobs.
func (d *DB) DeleteForecasts(chatID, userID int64) ([]models.Forecast, error) {
	tx, err := d.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
        SELECT id, chat_id, user_id, city_id, cron_expression, next_delivery
        FROM forecasts WHERE chat_id=? AND user_id=? ORDER BY id`, chatID, userID)
	if err != nil {
		return nil, err
	}
	deleted, err := scanForecasts(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM forecasts WHERE chat_id=? AND user_id=?`, chatID, userID); err != nil {
		return nil, err
	}
	return deleted, tx.Commit()
}

func scanForecasts(rows *sql.Rows) ([]models.Forecast, error) {
	var res []models.Forecast
	for rows.Next() {
		var (
			f  models.Forecast
			ts int64
		)
		if err := rows.Scan(&f.ID, &f.ChatID, &f.UserID, &f.CityID, &f.CronExpression, &ts); err != nil {
			return nil, err
		}
		f.NextDelivery = time.Unix(ts, 0).UTC()
		res = append(res, f)
	}
	return res, rows.Err()
}
