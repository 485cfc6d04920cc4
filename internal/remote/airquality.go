package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"codeberg.org/mutker/envmon/internal/aqi"
	"codeberg.org/mutker/envmon/internal/errors"
)

// AirQualitySnapshot carries the normalized 0-500 index alongside the raw
// pollutant concentrations. Humidity defaults to 0 when the upstream omits
// it; that is a degrade-not-fail policy, not an error.
type AirQualitySnapshot struct {
	Index    int     `json:"index"`
	PM25     float64 `json:"pm25"`
	PM10     float64 `json:"pm10"`
	Humidity float64 `json:"humidity"`
}

type airQualityPayload struct {
	List []airQualityEntry `json:"list"`
}

type airQualityEntry struct {
	Level    *int     `json:"level"`
	PM25     float64  `json:"pm25"`
	PM10     float64  `json:"pm10"`
	Humidity *float64 `json:"humidity"`
}

// FetchAirQuality performs a single request keyed by coordinates. The
// payload must contain at least one measurement entry; the first entry is
// taken as current and its severity level is fed through the normalizer.
func (c *Client) FetchAirQuality(ctx context.Context, lat, lon float64) (AirQualitySnapshot, error) {
	errFactory := errors.New()

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	query.Set("appid", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AirQualityURL+"?"+query.Encode(), nil)
	if err != nil {
		return AirQualitySnapshot{}, errFactory.Wrap(ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AirQualitySnapshot{}, errFactory.Wrap(ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return AirQualitySnapshot{}, errFactory.WithData(ErrUpstream, resp.Status)
	}

	var payload airQualityPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return AirQualitySnapshot{}, errFactory.Wrap(ErrInvalidPayload, err)
	}

	if len(payload.List) == 0 {
		return AirQualitySnapshot{}, errFactory.WithMessage(ErrInvalidPayload, "air quality payload has no measurements")
	}

	current := payload.List[0]
	if current.Level == nil {
		return AirQualitySnapshot{}, errFactory.WithMessage(ErrInvalidPayload, "air quality measurement missing severity level")
	}

	snapshot := AirQualitySnapshot{
		Index: aqi.Normalize(*current.Level),
		PM25:  current.PM25,
		PM10:  current.PM10,
	}
	if current.Humidity != nil {
		snapshot.Humidity = *current.Humidity
	}

	return snapshot, nil
}
