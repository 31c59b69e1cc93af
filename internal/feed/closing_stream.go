package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/models"
)

// ClosingHandler is called for each closing-line observation received from
// the stream
type ClosingHandler func(quote *MarketQuote) error

// ClosingStreamClient maintains a WebSocket subscription to the line
// provider's stream and surfaces the last quote before each event locks.
// Closing lines feed CLV only; losing the stream degrades CLV coverage but
// never blocks grading.
type ClosingStreamClient struct {
	conn            *websocket.Conn
	appKey          string
	streamURL       string
	mu              sync.RWMutex
	isConnected     bool
	handlers        []ClosingHandler
	reconnectConfig ReconnectConfig
	lastMessageTime time.Time
	logger          *logrus.Logger
}

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// closingStreamMessage is the provider's stream wire format
type closingStreamMessage struct {
	Op         string   `json:"op"`
	EventID    string   `json:"eventId"`
	Sport      string   `json:"sport"`
	Market     string   `json:"market"`
	Line       *float64 `json:"line"`
	Price      string   `json:"price"`
	HomeTeamID string   `json:"homeTeamId"`
	AwayTeamID string   `json:"awayTeamId"`
	LockedAt   string   `json:"lockedAt"`
	Heartbeat  bool     `json:"heartbeat"`
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// NewClosingStreamClient creates a new closing-line stream client
func NewClosingStreamClient(streamURL, appKey string, logger *logrus.Logger) *ClosingStreamClient {
	if logger == nil {
		logger = logrus.New()
	}

	return &ClosingStreamClient{
		appKey:          appKey,
		streamURL:       streamURL,
		handlers:        make([]ClosingHandler, 0),
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
	}
}

// Connect establishes the stream connection and starts the read loop
func (s *ClosingStreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	wsURL := fmt.Sprintf("wss://%s/closing", s.streamURL)

	s.logger.WithField("url", wsURL).Info("Connecting to closing-line stream")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()

	go s.readMessages()

	return nil
}

// Subscribe registers interest in closing lines for the given events
func (s *ClosingStreamClient) Subscribe(ctx context.Context, eventIDs []uuid.UUID) error {
	s.mu.RLock()
	if !s.isConnected || s.conn == nil {
		s.mu.RUnlock()
		return fmt.Errorf("not connected to stream")
	}
	s.mu.RUnlock()

	ids := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		ids[i] = id.String()
	}

	subMsg := map[string]interface{}{
		"op":        "subscribe",
		"appKey":    s.appKey,
		"eventIds":  ids,
		"heartbeat": true,
	}

	s.logger.WithField("events", len(eventIDs)).Info("Subscribing to closing lines")
	return s.sendMessage(subMsg)
}

// AddHandler registers a closing-line handler
func (s *ClosingStreamClient) AddHandler(handler ClosingHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// readMessages reads messages from the WebSocket connection
func (s *ClosingStreamClient) readMessages() {
	defer s.Close()

	for {
		var raw json.RawMessage
		err := s.conn.ReadJSON(&raw)
		if err != nil {
			s.logger.WithError(err).Warn("Error reading stream message")
			s.mu.Lock()
			s.isConnected = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		var msg closingStreamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.WithError(err).Warn("Malformed stream message")
			continue
		}

		if msg.Heartbeat || msg.Op != "closing" {
			continue
		}

		quote, err := s.convertMessage(&msg)
		if err != nil {
			s.logger.WithError(err).Warn("Dropping invalid closing message")
			continue
		}

		s.mu.RLock()
		handlers := s.handlers
		s.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(quote); err != nil {
				s.logger.WithError(err).WithField("event_id", quote.EventID).Error("Closing handler error")
			}
		}
	}
}

func (s *ClosingStreamClient) convertMessage(msg *closingStreamMessage) (*MarketQuote, error) {
	id, err := uuid.Parse(msg.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", msg.EventID, err)
	}

	marketType, err := models.ParseMarketType(msg.Market)
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", msg.Price, err)
	}

	capturedAt, err := time.Parse(time.RFC3339, msg.LockedAt)
	if err != nil {
		capturedAt = time.Now().UTC()
	}

	return &MarketQuote{
		EventID:    id,
		Sport:      models.Sport(msg.Sport),
		MarketType: marketType,
		Line:       msg.Line,
		Price:      price,
		HomeTeamID: msg.HomeTeamID,
		AwayTeamID: msg.AwayTeamID,
		CapturedAt: capturedAt,
	}, nil
}

// sendMessage sends a JSON message to the stream
func (s *ClosingStreamClient) sendMessage(msg interface{}) error {
	s.mu.RLock()
	if !s.isConnected || s.conn == nil {
		s.mu.RUnlock()
		return fmt.Errorf("not connected")
	}
	conn := s.conn
	s.mu.RUnlock()

	return conn.WriteJSON(msg)
}

// IsConnected returns whether the stream is connected
func (s *ClosingStreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message
func (s *ClosingStreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close closes the stream connection
func (s *ClosingStreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.isConnected = false
	return s.conn.Close()
}
