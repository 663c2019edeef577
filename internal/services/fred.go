package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"matt-dashboard/internal/models"
)

const (
	fredBaseURL  = "https://api.stlouisfed.org"
	fredSeriesID = "MORTGAGE30US"
)

// ErrNoAPIKey means the FRED API key is not configured. The mortgage
// overlay is optional; callers degrade to an unavailable response.
var ErrNoAPIKey = errors.New("FRED API key not configured")

// FredClient fetches the weekly 30-year fixed mortgage rate series
// from the FRED observations API.
type FredClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewFredClient(apiKey string, logger *slog.Logger) *FredClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FredClient{
		apiKey:  apiKey,
		baseURL: fredBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// MortgageRates fetches the full MORTGAGE30US series. FRED reports
// missing observations as ".", which are skipped.
func (c *FredClient) MortgageRates(ctx context.Context) ([]models.MortgageRate, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{
		"series_id": {fredSeriesID},
		"api_key":   {c.apiKey},
		"file_type": {"json"},
	}
	endpoint := c.baseURL + "/fred/series/observations?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build FRED request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch FRED series: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("FRED responded %d", resp.StatusCode)
	}

	var body fredResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode FRED response: %w", err)
	}

	rates := make([]models.MortgageRate, 0, len(body.Observations))
	for _, obs := range body.Observations {
		if obs.Value == "." || obs.Value == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		rates = append(rates, models.MortgageRate{Date: date, Value: value})
	}

	c.logger.Debug("fetched FRED series", "series", fredSeriesID, "observations", len(rates))
	return rates, nil
}

// FilterRates keeps observations inside [start, end] inclusive.
func FilterRates(rates []models.MortgageRate, start, end time.Time) []models.MortgageRate {
	out := make([]models.MortgageRate, 0, len(rates))
	for _, r := range rates {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}
