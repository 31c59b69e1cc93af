package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/models"
)

// MarketAPIClient implements MarketFeed against the line provider's HTTP API
type MarketAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

// marketQuoteResponse is the provider's wire format for a single quote
type marketQuoteResponse struct {
	EventID         string   `json:"eventId"`
	ExternalEventID string   `json:"externalEventId"`
	Sport           string   `json:"sport"`
	Market          string   `json:"market"`
	Line            *float64 `json:"line"`
	Price           string   `json:"price"`
	HomeTeamID      string   `json:"homeTeamId"`
	AwayTeamID      string   `json:"awayTeamId"`
	CapturedAt      string   `json:"capturedAt"`
}

// NewMarketAPIClient creates a new market feed client
func NewMarketAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *MarketAPIClient {
	return &MarketAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Quote retrieves the current line/price observation for an event+market
func (c *MarketAPIClient) Quote(ctx context.Context, eventID uuid.UUID, market models.MarketType) (*MarketQuote, error) {
	url := fmt.Sprintf("%s/events/%s/markets/%s", c.baseURL, eventID, market)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFeedError("market", ErrCodeNetworkError, "failed to create request", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewFeedError("market", ErrCodeNetworkError, "failed to fetch quote", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NewFeedError("market", ErrCodeNotFound, "market not offered for event", nil)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewFeedError("market", ErrCodeAuthenticationFailed, "invalid API key", nil)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewFeedError("market", ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var raw marketQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, NewFeedError("market", ErrCodeInvalidData, "failed to parse response", err)
	}

	return c.convertQuote(&raw)
}

// convertQuote converts the provider wire format to a MarketQuote
func (c *MarketAPIClient) convertQuote(raw *marketQuoteResponse) (*MarketQuote, error) {
	id, err := uuid.Parse(raw.EventID)
	if err != nil {
		return nil, NewFeedError("market", ErrCodeInvalidData, fmt.Sprintf("invalid event id %q", raw.EventID), err)
	}

	marketType, err := models.ParseMarketType(raw.Market)
	if err != nil {
		return nil, NewFeedError("market", ErrCodeInvalidData, fmt.Sprintf("unknown market %q", raw.Market), err)
	}

	price, err := decimal.NewFromString(raw.Price)
	if err != nil {
		return nil, NewFeedError("market", ErrCodeInvalidData, fmt.Sprintf("invalid price %q", raw.Price), err)
	}

	capturedAt, err := time.Parse(time.RFC3339, raw.CapturedAt)
	if err != nil {
		capturedAt = time.Now().UTC()
	}

	return &MarketQuote{
		EventID:         id,
		ExternalEventID: raw.ExternalEventID,
		Sport:           models.Sport(raw.Sport),
		MarketType:      marketType,
		Line:            raw.Line,
		Price:           price,
		HomeTeamID:      raw.HomeTeamID,
		AwayTeamID:      raw.AwayTeamID,
		CapturedAt:      capturedAt,
	}, nil
}

// Name returns the feed name
func (c *MarketAPIClient) Name() string {
	return "market"
}
