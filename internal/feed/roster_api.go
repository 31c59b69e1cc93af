package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RosterAPIClient implements RosterFeed against the roster provider's HTTP API
type RosterAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

// rosterContextResponse is the provider's wire format for event context
type rosterContextResponse struct {
	Home        rosterTeamEntry `json:"home"`
	Away        rosterTeamEntry `json:"away"`
	PaceFactor  float64         `json:"paceFactor"`
	DataQuality float64         `json:"dataQuality"`
}

type rosterTeamEntry struct {
	TeamID      string   `json:"teamId"`
	Rating      *float64 `json:"rating"`
	InjuryDelta float64  `json:"injuryDelta"`
	RestDays    int      `json:"restDays"`
}

// NewRosterAPIClient creates a new roster feed client
func NewRosterAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *RosterAPIClient {
	return &RosterAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Context retrieves roster, injury, rest, and pace context for an event
func (c *RosterAPIClient) Context(ctx context.Context, eventID uuid.UUID) (*RosterContext, error) {
	url := fmt.Sprintf("%s/events/%s/context", c.baseURL, eventID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFeedError("roster", ErrCodeNetworkError, "failed to create request", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewFeedError("roster", ErrCodeNetworkError, "failed to fetch context", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NewFeedError("roster", ErrCodeNotFound, "no context for event", nil)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewFeedError("roster", ErrCodeAuthenticationFailed, "invalid API key", nil)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewFeedError("roster", ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var raw rosterContextResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, NewFeedError("roster", ErrCodeInvalidData, "failed to parse response", err)
	}

	return &RosterContext{
		Home: TeamContext{
			TeamID:      raw.Home.TeamID,
			Rating:      raw.Home.Rating,
			InjuryDelta: raw.Home.InjuryDelta,
			RestDays:    raw.Home.RestDays,
		},
		Away: TeamContext{
			TeamID:      raw.Away.TeamID,
			Rating:      raw.Away.Rating,
			InjuryDelta: raw.Away.InjuryDelta,
			RestDays:    raw.Away.RestDays,
		},
		PaceFactor:  raw.PaceFactor,
		DataQuality: raw.DataQuality,
	}, nil
}

// Name returns the feed name
func (c *RosterAPIClient) Name() string {
	return "roster"
}
