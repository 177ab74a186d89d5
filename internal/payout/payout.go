// Package payout implements the boundary call to the external ledger
// service. The engine guarantees at-most-once emission per game; this
// package only carries the event across.
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adidanco/scambodia/internal/engine"
)

// HTTPLedger posts payout events to the ledger service's REST endpoint.
type HTTPLedger struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewHTTPLedger points at the ledger's payout endpoint.
func NewHTTPLedger(url string, log *logrus.Logger) *HTTPLedger {
	if log == nil {
		log = logrus.New()
	}
	return &HTTPLedger{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// ledgerResponse is the ledger's acknowledgement.
type ledgerResponse struct {
	Accepted bool `json:"accepted"`
}

// Process delivers the payout event. A non-accepted response is an
// error for the caller to log; the ledger side owns retries of the
// actual credit.
func (l *HTTPLedger) Process(ctx context.Context, ev engine.PayoutEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payout event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build payout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver payout for game %s: %w", ev.GameID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger rejected payout for game %s: status %d", ev.GameID, resp.StatusCode)
	}
	var ack ledgerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("decode ledger response for game %s: %w", ev.GameID, err)
	}
	if !ack.Accepted {
		return fmt.Errorf("ledger did not accept payout for game %s", ev.GameID)
	}
	return nil
}

// LogOnly records payout events in the log without moving money. Used
// when no ledger endpoint is configured (local development).
type LogOnly struct {
	log *logrus.Logger
}

// NewLogOnly returns a ledger stand-in that only logs.
func NewLogOnly(log *logrus.Logger) *LogOnly {
	if log == nil {
		log = logrus.New()
	}
	return &LogOnly{log: log}
}

// Process logs the event and accepts it.
func (l *LogOnly) Process(ctx context.Context, ev engine.PayoutEvent) error {
	l.log.WithFields(logrus.Fields{
		"game_id": ev.GameID, "winner_id": ev.WinnerID, "amount": ev.Amount, "draw": ev.IsDraw,
	}).Info("payout event (log-only ledger)")
	return nil
}
