// Package events publishes assessment events to NATS so downstream
// consumers (notifiers, analytics) can react without polling the API.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects emitted by the processor.
const (
	SubjectRunCompleted = "crm.dealwatch.run.completed"
	SubjectDealRed      = "crm.dealwatch.deal.red"
)

// RunCompleted is the payload for SubjectRunCompleted.
type RunCompleted struct {
	RunID    string `json:"run_id"`
	Deals    int    `json:"deals"`
	Red      int    `json:"red"`
	Yellow   int    `json:"yellow"`
	Green    int    `json:"green"`
	Failures int    `json:"failures"`
}

// DealRed is the payload for SubjectDealRed.
type DealRed struct {
	RunID      string  `json:"run_id"`
	DealID     string  `json:"deal_id"`
	ClientName string  `json:"client_name"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Close() {
	c.conn.Close()
}
