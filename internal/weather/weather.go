// Package weather looks up current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Report struct {
	City        string
	Temperature float64
	Description string
}

// APIError is an error payload returned by the weather service.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weather api %s: %s", e.Code, e.Message)
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type owmResponse struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Main    struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current returns the current temperature (metric) and conditions for city.
func (c *Client) Current(ctx context.Context, city string) (Report, error) {
	if c.apiKey == "" {
		return Report{}, errors.New("weather api key not configured")
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Report{}, fmt.Errorf("read response: %w", err)
	}

	var wr owmResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return Report{}, fmt.Errorf("unmarshal response: %w", err)
	}

	code := strings.Trim(string(wr.Cod), `"`)
	if code != "200" {
		msg := wr.Message
		if msg == "" {
			msg = "Could not fetch weather details."
		}
		return Report{}, &APIError{Code: code, Message: msg}
	}

	r := Report{City: city, Temperature: wr.Main.Temp}
	if len(wr.Weather) > 0 {
		r.Description = wr.Weather[0].Description
	}
	return r, nil
}

var cityPattern = regexp.MustCompile(`(?i)(?:weather|temperature) in ([a-zA-Z\s]+)`)

var titleCaser = cases.Title(language.English)

// ExtractCity pulls the city name following "weather in" or "temperature in",
// title-cased, or returns fallback when there is none.
func ExtractCity(query, fallback string) string {
	m := cityPattern.FindStringSubmatch(query)
	if m == nil {
		return fallback
	}
	city := strings.TrimSpace(m[1])
	if city == "" {
		return fallback
	}
	return titleCaser.String(strings.ToLower(city))
}
