package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/models"
)

// ScoreAPIClient implements ScoreProvider against the score provider's HTTP
// API. Final scores never change once the event is final, so responses are
// cached by provider event id to keep sweep batches cheap.
type ScoreAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	cache      *cache.Cache
	logger     *logrus.Logger
}

// scoreResponse is the provider's wire format for a final score
type scoreResponse struct {
	EventID    string          `json:"eventId"`
	HomeTeamID string          `json:"homeTeamId"`
	AwayTeamID string          `json:"awayTeamId"`
	HomeScore  int             `json:"homeScore"`
	AwayScore  int             `json:"awayScore"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload"`
}

// NewScoreAPIClient creates a new score provider client
func NewScoreAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, cacheTTL time.Duration, logger *logrus.Logger) *ScoreAPIClient {
	return &ScoreAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache.New(cacheTTL, 2*cacheTTL),
		logger:     logger,
	}
}

// FinalScore retrieves the final score for a provider event id. Non-final
// scores are returned but never cached.
func (c *ScoreAPIClient) FinalScore(ctx context.Context, externalEventID string) (*models.FinalScore, error) {
	if cached, found := c.cache.Get(externalEventID); found {
		return cached.(*models.FinalScore), nil
	}

	url := fmt.Sprintf("%s/scores/%s", c.baseURL, externalEventID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFeedError("scores", ErrCodeNetworkError, "failed to create request", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewFeedError("scores", ErrCodeNetworkError, "failed to fetch score", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NewFeedError("scores", ErrCodeNotFound, "no score for event", nil)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewFeedError("scores", ErrCodeAuthenticationFailed, "invalid API key", nil)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewFeedError("scores", ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var raw scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, NewFeedError("scores", ErrCodeInvalidData, "failed to parse response", err)
	}

	score := convertScore(&raw)
	if score.Final {
		c.cache.Set(externalEventID, score, cache.DefaultExpiration)
	}

	return score, nil
}

// ListFinalScores retrieves recent final scores for a sport. Used only by
// the historical backfill tooling; not cached.
func (c *ScoreAPIClient) ListFinalScores(ctx context.Context, sport models.Sport) ([]*models.FinalScore, error) {
	url := fmt.Sprintf("%s/scores?sport=%s&status=final", c.baseURL, sport)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFeedError("scores", ErrCodeNetworkError, "failed to create request", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewFeedError("scores", ErrCodeNetworkError, "failed to list scores", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewFeedError("scores", ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var rawScores []scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawScores); err != nil {
		return nil, NewFeedError("scores", ErrCodeInvalidData, "failed to parse response", err)
	}

	scores := make([]*models.FinalScore, 0, len(rawScores))
	for i := range rawScores {
		scores = append(scores, convertScore(&rawScores[i]))
	}

	return scores, nil
}

// Name returns the feed name
func (c *ScoreAPIClient) Name() string {
	return "scores"
}

func convertScore(raw *scoreResponse) *models.FinalScore {
	return &models.FinalScore{
		ProviderEventID: raw.EventID,
		HomeTeamID:      raw.HomeTeamID,
		AwayTeamID:      raw.AwayTeamID,
		HomeScore:       raw.HomeScore,
		AwayScore:       raw.AwayScore,
		Final:           raw.Status == "final",
		Raw:             raw.Payload,
	}
}
