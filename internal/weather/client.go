// Package weather fetches current conditions from OpenWeatherMap and
// renders them as the display string the bot sends to chats.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

func New(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
		baseURL:    defaultBaseURL,
	}
}

// NewWithBaseURL exists for tests pointed at a local server.
func NewWithBaseURL(token, baseURL string) *Client {
	c := New(token)
	c.baseURL = baseURL
	return c
}

type current struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
}

// Fetch returns the formatted current weather at (lat, lon), metric units.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%v", lat))
	q.Set("lon", fmt.Sprintf("%v", lon))
	q.Set("units", "metric")
	q.Set("appid", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather: unexpected status %s", resp.Status)
	}

	var cur current
	if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
		return "", fmt.Errorf("weather: decode: %w", err)
	}
	return cur.display(), nil
}

func (w current) display() string {
	desc := ""
	if len(w.Weather) > 0 {
		desc = w.Weather[0].Description
	}
	return fmt.Sprintf(
		"\n🌍🌍 Weather: %s\n🌡️🌡️ Mean Temperature: %v ºC\n🧊🧊 Minimum temperature: %v ºC\n🔥🔥 Maximum temperature: %v ºC\n⛰️⛰️ Pressure: %v hPa\n💧💧 Humidity: %v %%",
		desc, w.Main.Temp, w.Main.TempMin, w.Main.TempMax, w.Main.Pressure, w.Main.Humidity,
	)
}
