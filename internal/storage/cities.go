package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"telegram-weather-bot/internal/models"
)

// ---------- cities ----------------------------------------------------------

// Search results must come back in a stable order so an ordinal picked from
// a listed result set addresses the same row on the follow-up query.
const cityOrder = `ORDER BY name, country, id`

func (d *DB) SearchCityByID(id int64) (models.City, error) {
	var c models.City
	err := d.QueryRow(`
        SELECT id, name, state, country, lat, lon FROM cities WHERE id=?`, id,
	).Scan(&c.ID, &c.Name, &c.State, &c.Country, &c.Coord.Lat, &c.Coord.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return models.City{}, fmt.Errorf("%w: id %d", ErrCityNotFound, id)
	}
	return c, err
}

// GetCityByPattern returns up to 31 matches; the caller treats more than 30
// (or zero) as "not found" rather than paging.
func (d *DB) GetCityByPattern(pattern string) ([]models.City, error) {
	rows, err := d.Query(`
        SELECT id, name, state, country, lat, lon FROM cities
        WHERE name LIKE '%'||?||'%' COLLATE NOCASE `+cityOrder+` LIMIT 31`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.City
	for rows.Next() {
		var c models.City
		if err := rows.Scan(&c.ID, &c.Name, &c.State, &c.Country, &c.Coord.Lat, &c.Coord.Lon); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// GetCityRow resolves a 1-based ordinal within the result set of pattern.
func (d *DB) GetCityRow(pattern string, ordinal int) (models.City, error) {
	if ordinal < 1 {
		return models.City{}, fmt.Errorf("%w: ordinal %d", ErrCityNotFound, ordinal)
	}
	var c models.City
	err := d.QueryRow(`
        SELECT id, name, state, country, lat, lon FROM cities
        WHERE name LIKE '%'||?||'%' COLLATE NOCASE `+cityOrder+` LIMIT 1 OFFSET ?`,
		pattern, ordinal-1,
	).Scan(&c.ID, &c.Name, &c.State, &c.Country, &c.Coord.Lat, &c.Coord.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return models.City{}, fmt.Errorf("%w: %q row %d", ErrCityNotFound, pattern, ordinal)
	}
	return c, err
}

// InsertCity seeds the catalogue; the bot itself only reads it.
func (d *DB) InsertCity(c models.City) error {
	_, err := d.Exec(`
        INSERT INTO cities (id, name, state, country, lat, lon) VALUES (?,?,?,?,?,?)
        ON CONFLICT(id) DO UPDATE SET
            name=excluded.name, state=excluded.state, country=excluded.country,
            lat=excluded.lat, lon=excluded.lon`,
		c.ID, c.Name, c.State, c.Country, c.Coord.Lat, c.Coord.Lon)
	return err
}
