package remote

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"

	"codeberg.org/mutker/envmon/internal/errors"
)

// WeatherSnapshot is immutable once constructed and replaced wholesale on
// each successful fetch. Temperatures are rounded to whole units.
type WeatherSnapshot struct {
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	High        int    `json:"high"`
	Low         int    `json:"low"`
}

type weatherPayload struct {
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp    *float64 `json:"temp"`
		TempMin float64  `json:"temp_min"`
		TempMax float64  `json:"temp_max"`
	} `json:"main"`
}

// FetchWeather performs a single request keyed by place name and unit
// system. Transport errors, non-2xx responses and malformed payloads all
// surface as upstream_unavailable.
func (c *Client) FetchWeather(ctx context.Context, location string) (WeatherSnapshot, error) {
	errFactory := errors.New()

	query := url.Values{}
	query.Set("q", location)
	query.Set("units", c.cfg.Units)
	query.Set("appid", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.WeatherURL+"?"+query.Encode(), nil)
	if err != nil {
		return WeatherSnapshot{}, errFactory.Wrap(ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WeatherSnapshot{}, errFactory.Wrap(ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return WeatherSnapshot{}, errFactory.WithData(ErrUpstream, resp.Status)
	}

	var payload weatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return WeatherSnapshot{}, errFactory.Wrap(ErrUpstream, err)
	}

	if len(payload.Weather) == 0 || payload.Main.Temp == nil {
		return WeatherSnapshot{}, errFactory.WithMessage(ErrUpstream, "weather payload missing required fields")
	}

	return WeatherSnapshot{
		Temperature: roundToInt(*payload.Main.Temp),
		Description: payload.Weather[0].Description,
		Icon:        payload.Weather[0].Icon,
		High:        roundToInt(payload.Main.TempMax),
		Low:         roundToInt(payload.Main.TempMin),
	}, nil
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}
