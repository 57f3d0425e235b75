// Package weather is a small client for the weatherapi.com REST API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"voxdesk/internal/retry"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      retry.Config
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		retry:      retry.Default(),
	}
}

type Condition struct {
	Text string `json:"text"`
}

type Current struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC      float64   `json:"temp_c"`
		FeelsLikeC float64   `json:"feelslike_c"`
		Condition  Condition `json:"condition"`
	} `json:"current"`
}

type Day struct {
	AvgTempC          float64   `json:"avgtemp_c"`
	MaxTempC          float64   `json:"maxtemp_c"`
	MinTempC          float64   `json:"mintemp_c"`
	DailyChanceOfRain float64   `json:"daily_chance_of_rain"`
	Condition         Condition `json:"condition"`
}

type ForecastDay struct {
	Date string `json:"date"`
	Day  Day    `json:"day"`
}

type Forecast struct {
	Forecast struct {
		ForecastDay []ForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

// APIError is the error object weatherapi.com returns for bad requests.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weatherapi: %s (code %d, status %d)", e.Message, e.Code, e.Status)
}

func (c *Client) Current(ctx context.Context, location string) (*Current, error) {
	var out Current
	if err := c.get(ctx, "/current.json", url.Values{"q": {location}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Forecast(ctx context.Context, location string, days int) (*Forecast, error) {
	var out Forecast
	q := url.Values{"q": {location}, "days": {strconv.Itoa(days)}}
	if err := c.get(ctx, "/forecast.json", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if c.apiKey == "" {
		return errors.New("weather API key not configured")
	}
	q.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + q.Encode()

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
			var envelope struct {
				Error *APIError `json:"error"`
			}
			if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
				apiErr.Code = envelope.Error.Code
				apiErr.Message = envelope.Error.Message
			}
			if retry.IsRetryableStatus(resp.StatusCode) {
				return nil, apiErr
			}
			return nil, backoff.Permanent(apiErr)
		}
		return body, nil
	}, c.retry.Options()...)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
