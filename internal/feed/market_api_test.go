package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeline/internal/models"
)

const quotePayload = `{
	"eventId": "2b38e6a2-7a0a-4f3e-9a35-0f2d1c6c8a10",
	"externalEventId": "ext-1001",
	"sport": "NBA",
	"market": "SPREAD",
	"line": -3.5,
	"price": "-110",
	"homeTeamId": "BOS",
	"awayTeamId": "NYK",
	"capturedAt": "2026-01-15T18:30:00Z"
}`

func TestQuoteFetch(t *testing.T) {
	eventID := uuid.MustParse("2b38e6a2-7a0a-4f3e-9a35-0f2d1c6c8a10")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/events/%s/markets/SPREAD", eventID), r.URL.Path)
		fmt.Fprint(w, quotePayload)
	}))
	defer server.Close()

	client := NewMarketAPIClient(testHTTPClient(), server.URL, "test-key", logrus.New())

	quote, err := client.Quote(context.Background(), eventID, models.MarketTypeSpread)
	require.NoError(t, err)

	assert.Equal(t, eventID, quote.EventID)
	assert.Equal(t, "ext-1001", quote.ExternalEventID)
	assert.Equal(t, models.SportNBA, quote.Sport)
	assert.Equal(t, models.MarketTypeSpread, quote.MarketType)
	require.NotNil(t, quote.Line)
	assert.Equal(t, -3.5, *quote.Line)
	assert.Equal(t, "-110", quote.Price.String())
	assert.Equal(t, "BOS", quote.HomeTeamID)
	assert.Equal(t, 2026, quote.CapturedAt.Year())
}

func TestQuoteMarketNotOffered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewMarketAPIClient(testHTTPClient(), server.URL, "test-key", logrus.New())

	_, err := client.Quote(context.Background(), uuid.New(), models.MarketTypeTotal)
	var fe FeedError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrCodeNotFound, fe.Code)
	assert.Equal(t, "market", fe.Source)
}

func TestQuoteRejectsUnknownMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"eventId": "2b38e6a2-7a0a-4f3e-9a35-0f2d1c6c8a10",
			"sport": "NBA",
			"market": "PARLAY",
			"price": "-110",
			"capturedAt": "2026-01-15T18:30:00Z"
		}`)
	}))
	defer server.Close()

	client := NewMarketAPIClient(testHTTPClient(), server.URL, "test-key", logrus.New())

	_, err := client.Quote(context.Background(), uuid.New(), models.MarketTypeSpread)
	var fe FeedError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrCodeInvalidData, fe.Code)
}

func TestQuoteRejectsBadPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"eventId": "2b38e6a2-7a0a-4f3e-9a35-0f2d1c6c8a10",
			"sport": "NBA",
			"market": "SPREAD",
			"line": -3.5,
			"price": "EVEN",
			"capturedAt": "2026-01-15T18:30:00Z"
		}`)
	}))
	defer server.Close()

	client := NewMarketAPIClient(testHTTPClient(), server.URL, "test-key", logrus.New())

	_, err := client.Quote(context.Background(), uuid.New(), models.MarketTypeSpread)
	var fe FeedError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrCodeInvalidData, fe.Code)
}

func TestFeedErrorFormatting(t *testing.T) {
	wrapped := fmt.Errorf("connection refused")
	err := NewFeedError("market", ErrCodeNetworkError, "failed to fetch quote", wrapped)

	assert.Equal(t, "market: network_error: failed to fetch quote (connection refused)", err.Error())
	assert.Equal(t, wrapped, errors.Unwrap(err))

	bare := NewFeedError("scores", ErrCodeNotFound, "no score for event", nil)
	assert.Equal(t, "scores: not_found: no score for event", bare.Error())
}
