package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
)

// Messenger sends outgoing chat messages.
type Messenger interface {
	SendMessage(chatID int64, replyToMessageID int, text string) error
}

// WeatherClient returns a display string for a coordinate.
type WeatherClient interface {
	Fetch(ctx context.Context, lat, lon float64) (string, error)
}

// HandleDelivery is the queue handler for DeliveryTaskType: look the city
// up, fetch its weather and send it to the chat.
func (c *Coordinator) HandleDelivery(ctx context.Context, payload json.RawMessage) error {
	var pl DeliveryPayload
	if err := json.Unmarshal(payload, &pl); err != nil {
		return fmt.Errorf("scheduler: decode delivery payload: %w", err)
	}

	city, err := c.store.SearchCityByID(pl.CityID)
	if err != nil {
		return fmt.Errorf("scheduler: delivery city %d: %w", pl.CityID, err)
	}

	info, err := c.weather.Fetch(ctx, city.Coord.Lat, city.Coord.Lon)
	if err != nil {
		return fmt.Errorf("scheduler: delivery weather: %w", err)
	}

	text := fmt.Sprintf("%s,%s\nLat %v , Lon %v\n%s",
		city.Name, city.Country, city.Coord.Lat, city.Coord.Lon, info)
	if err := c.api.SendMessage(pl.ChatID, 0, text); err != nil {
		return fmt.Errorf("scheduler: delivery send: %w", err)
	}

	c.log.Info().Int64("chat_id", pl.ChatID).Int64("city_id", pl.CityID).Msg("weather delivered")
	return nil
}
