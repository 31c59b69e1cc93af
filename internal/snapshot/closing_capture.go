package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/feed"
)

// PendingEventsFunc lists events with published picks that have not locked
// yet; these are the events whose closing lines still matter
type PendingEventsFunc func(ctx context.Context) ([]uuid.UUID, error)

// ClosingCapture ties the closing-line stream to the snapshot builder so
// that the last pre-lock quote for each pending event is persisted as a
// closing snapshot
type ClosingCapture struct {
	stream  *feed.ClosingStreamClient
	builder *Builder
	pending PendingEventsFunc
	logger  *logrus.Entry
}

// NewClosingCapture creates a closing capture service and registers its
// handler on the stream
func NewClosingCapture(stream *feed.ClosingStreamClient, builder *Builder, pending PendingEventsFunc, logger *logrus.Logger) *ClosingCapture {
	c := &ClosingCapture{
		stream:  stream,
		builder: builder,
		pending: pending,
		logger:  logger.WithField("component", "closing_capture"),
	}
	stream.AddHandler(c.handleQuote)
	return c
}

// Start connects the stream and performs the initial subscription
func (c *ClosingCapture) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect closing stream: %w", err)
	}
	return c.RefreshSubscriptions(ctx)
}

// RefreshSubscriptions re-subscribes the stream to all events that still
// have pending picks. Called periodically so newly published picks gain
// closing coverage, and doubles as the reconnect path after a stream drop.
func (c *ClosingCapture) RefreshSubscriptions(ctx context.Context) error {
	if !c.stream.IsConnected() {
		if err := c.stream.Connect(ctx); err != nil {
			return fmt.Errorf("closing stream reconnect failed: %w", err)
		}
	}

	eventIDs, err := c.pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending events: %w", err)
	}

	if len(eventIDs) == 0 {
		return nil
	}

	return c.stream.Subscribe(ctx, eventIDs)
}

// IsConnected reports the stream connection state
func (c *ClosingCapture) IsConnected() bool {
	return c.stream.IsConnected()
}

// Close closes the underlying stream
func (c *ClosingCapture) Close() error {
	return c.stream.Close()
}

func (c *ClosingCapture) handleQuote(quote *feed.MarketQuote) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := c.builder.CaptureClosing(ctx, quote)
	if err != nil {
		return fmt.Errorf("failed to capture closing snapshot: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"event_id": snap.EventID,
		"market":   snap.MarketType,
	}).Debug("Closing snapshot captured")

	return nil
}
