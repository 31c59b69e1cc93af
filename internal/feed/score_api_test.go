package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeline/internal/models"
)

func testHTTPClient() *RateLimitedHTTPClient {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := HTTPClientConfig{
		Timeout:           5 * time.Second,
		MaxRetries:        0,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      time.Millisecond,
		RateLimit:         1000,
		CircuitBreakerMax: 5,
	}
	return NewRateLimitedHTTPClient(cfg, log)
}

func scorePayload(eventID, status string) string {
	return fmt.Sprintf(`{
		"eventId": %q,
		"homeTeamId": "BOS",
		"awayTeamId": "NYK",
		"homeScore": 110,
		"awayScore": 104,
		"status": %q,
		"payload": {"period": "F"}
	}`, eventID, status)
}

func TestFinalScoreFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scores/ext-1001", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, scorePayload("ext-1001", "final"))
	}))
	defer server.Close()

	client := NewScoreAPIClient(testHTTPClient(), server.URL, "test-key", time.Minute, logrus.New())

	score, err := client.FinalScore(context.Background(), "ext-1001")
	require.NoError(t, err)

	assert.Equal(t, "ext-1001", score.ProviderEventID)
	assert.Equal(t, "BOS", score.HomeTeamID)
	assert.Equal(t, 110, score.HomeScore)
	assert.Equal(t, 104, score.AwayScore)
	assert.True(t, score.Final)
	assert.NotEmpty(t, score.Raw)
}

func TestFinalScoreCachesOnlyFinalScores(t *testing.T) {
	requests := 0
	status := "in_progress"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, scorePayload("ext-1001", status))
	}))
	defer server.Close()

	client := NewScoreAPIClient(testHTTPClient(), server.URL, "test-key", time.Minute, logrus.New())

	// In-progress scores can still change; every call must go to the wire
	score, err := client.FinalScore(context.Background(), "ext-1001")
	require.NoError(t, err)
	assert.False(t, score.Final)

	_, err = client.FinalScore(context.Background(), "ext-1001")
	require.NoError(t, err)
	assert.Equal(t, 2, requests)

	// Once final, the score is immutable and the cache takes over
	status = "final"
	score, err = client.FinalScore(context.Background(), "ext-1001")
	require.NoError(t, err)
	assert.True(t, score.Final)

	_, err = client.FinalScore(context.Background(), "ext-1001")
	require.NoError(t, err)
	assert.Equal(t, 3, requests)
}

func TestFinalScoreNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewScoreAPIClient(testHTTPClient(), server.URL, "test-key", time.Minute, logrus.New())

	_, err := client.FinalScore(context.Background(), "ext-9999")
	require.Error(t, err)

	var fe FeedError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrCodeNotFound, fe.Code)
	assert.Equal(t, "scores", fe.Source)
}

func TestFinalScoreAuthenticationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewScoreAPIClient(testHTTPClient(), server.URL, "bad-key", time.Minute, logrus.New())

	_, err := client.FinalScore(context.Background(), "ext-1001")
	var fe FeedError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrCodeAuthenticationFailed, fe.Code)
}

func TestFinalScoreMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	client := NewScoreAPIClient(testHTTPClient(), server.URL, "test-key", time.Minute, logrus.New())

	_, err := client.FinalScore(context.Background(), "ext-1001")
	var fe FeedError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrCodeInvalidData, fe.Code)
}

func TestListFinalScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NBA", r.URL.Query().Get("sport"))
		assert.Equal(t, "final", r.URL.Query().Get("status"))
		fmt.Fprintf(w, "[%s,%s]", scorePayload("ext-1001", "final"), scorePayload("ext-1002", "final"))
	}))
	defer server.Close()

	client := NewScoreAPIClient(testHTTPClient(), server.URL, "test-key", time.Minute, logrus.New())

	scores, err := client.ListFinalScores(context.Background(), models.SportNBA)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "ext-1001", scores[0].ProviderEventID)
	assert.Equal(t, "ext-1002", scores[1].ProviderEventID)
}
