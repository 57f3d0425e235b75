package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"voxdesk/internal/nlu"
	"voxdesk/internal/weather"
)

type WeatherSource interface {
	Current(ctx context.Context, location string) (*weather.Current, error)
	Forecast(ctx context.Context, location string, days int) (*weather.Forecast, error)
}

type Weather struct {
	src             WeatherSource
	defaultLocation string
}

func NewWeather(src WeatherSource, defaultLocation string) *Weather {
	return &Weather{src: src, defaultLocation: defaultLocation}
}

func (w *Weather) Route() Route {
	return Route{Icon: "🌤️", Handle: w.Handle}
}

func (w *Weather) Handle(ctx context.Context, slots nlu.Slots) string {
	location := slots.Text("location", w.defaultLocation)
	when := strings.ToLower(slots.First("datetime", "date", "when"))

	if when == "" || when == "today" || when == "now" {
		cur, err := w.src.Current(ctx, location)
		if err != nil {
			return weatherFailure("weather", location, err)
		}
		c := cur.Current
		return fmt.Sprintf("Weather in %s: %s, %s°C (feels like %s°C).",
			location, c.Condition.Text, num(c.TempC), num(c.FeelsLikeC))
	}

	fc, err := w.src.Forecast(ctx, location, 2)
	if err != nil {
		return weatherFailure("forecast", location, err)
	}
	days := fc.Forecast.ForecastDay
	if len(days) < 2 {
		return warnf("Weather fetch failed: forecast for %s has no data for tomorrow", location)
	}
	d := days[1].Day
	return fmt.Sprintf("Tomorrow in %s: %s, Avg %s°C, Chance of rain: %s%%.",
		location, d.Condition.Text, num(d.AvgTempC), num(d.DailyChanceOfRain))
}

func weatherFailure(kind, location string, err error) string {
	var apiErr *weather.APIError
	if errors.As(err, &apiErr) {
		return failf("Couldn't fetch %s for %s: %s", kind, location, apiErr.Message)
	}
	return warnf("Weather fetch failed: %v", err)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
