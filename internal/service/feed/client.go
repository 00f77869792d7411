package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"InsiderScan/internal/domain/models"
	domrepo "InsiderScan/internal/domain/repository"
	"InsiderScan/pkg/util"

	"github.com/gorilla/websocket"
)

// TimeField selects which timestamp from the upstream filing parser becomes
// the event time. The choice is made once here; the core never falls back
// between the two.
type TimeField string

const (
	TimeFieldFiling      TimeField = "filing"
	TimeFieldTransaction TimeField = "transaction"
)

// Client implements an EventStream backed by the filing parser's WebSocket
// feed. The parser ships fully materialized transaction records; no document
// parsing happens on this side.
type Client struct {
	feedURL        string
	timeField      TimeField
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new filing feed EventStream.
func New(feedURL string, timeField TimeField, reconnectDelay, pingInterval time.Duration) domrepo.EventStream {
	return &Client{
		feedURL:        feedURL,
		timeField:      timeField,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.feedURL, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("feed: connected")
	return nil
}

type feedTrade struct {
	Symbol          string  `json:"symbol"`
	Actor           string  `json:"actor"`
	Shares          float64 `json:"shares"`
	Price           float64 `json:"price"`
	ScheduledPlan   bool    `json:"scheduled_plan"`
	FilingTime      string  `json:"filing_time"`
	TransactionTime string  `json:"transaction_time"`
	SourceRef       string  `json:"source_ref"`
}

type feedMessage struct {
	Type string      `json:"type"`
	Data []feedTrade `json:"data"`
}

// Read streams TradeEvents and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.TradeEvent, <-chan error) {
	events := make(chan *models.TradeEvent, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("feed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("feed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-trade frames
					continue
				}
				if m.Type != "filing_trades" {
					continue
				}
				for _, d := range m.Data {
					e := c.toEvent(d)
					select {
					case events <- e:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return events, errs
}

// toEvent maps a feed record to a TradeEvent using the configured timestamp
// field. An unparseable timestamp leaves EventTime zero; the store counts it
// as malformed instead of guessing the other field.
func (c *Client) toEvent(d feedTrade) *models.TradeEvent {
	raw := d.FilingTime
	if c.timeField == TimeFieldTransaction {
		raw = d.TransactionTime
	}
	t, _ := util.ParseTime(raw)
	return &models.TradeEvent{
		Symbol:        d.Symbol,
		Actor:         d.Actor,
		Shares:        d.Shares,
		Price:         d.Price,
		ScheduledPlan: d.ScheduledPlan,
		EventTime:     t.UTC(),
		SourceRef:     d.SourceRef,
	}
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	return c.Connect(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected returns true when the socket is up.
func (c *Client) IsConnected() bool { return c.connected }
