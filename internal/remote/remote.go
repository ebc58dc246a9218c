// Package remote is the fetch/post boundary to the spreadsheet web-app
// backend.
//
// Reads return a normalized envelope or a well-defined "no data" result;
// writes are fire-and-forget. The adapter never retries and never surfaces a
// transient failure to the user: the reconciler degrades to offline for the
// cycle and the next tick tries again.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/brendonchen/questsync/internal/quest"
)

// Envelope is the normalized remote read result.
type Envelope struct {
	HasData        bool                 `json:"hasData"`
	QuestData      *quest.Record        `json:"questData,omitempty"`
	YesterdayQuest *quest.Record        `json:"yesterdayQuestData,omitempty"`
	TotalDays      int                  `json:"totalDays"`
	LastUpdate     *time.Time           `json:"lastUpdate,omitempty"`
	HistoryData    []quest.HistoryEntry `json:"historyData,omitempty"`
	ScriptVersion  string               `json:"scriptVersion,omitempty"`
}

// wireResponse is the raw GET response body, envelope fields plus the
// success flag the backend wraps everything in.
type wireResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Envelope
}

// PushResult reports whether a fire-and-forget write left the machine.
// Sent=false means a local failure (no endpoint, network error); the backend
// outcome is unobservable by design.
type PushResult struct {
	Sent bool
}

// PushAck is the backend's answer to a write, when one arrives.
type PushAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"` // "updated" or "created"
}

// Client talks to a single web-app endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *log.Logger
}

// NewClient creates a remote client. An empty endpoint is valid and puts the
// client in offline mode: every fetch reports "no remote data" and every
// push is dropped. If logger is nil a stderr logger is used.
func NewClient(endpoint string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Fetch retrieves the current envelope.
//
// Returns (nil, nil) when no endpoint is configured. Network failures,
// non-2xx statuses, malformed bodies and backend-reported errors all return
// (nil, err); the caller treats any of these as "no remote data available
// this cycle".
func (c *Client) Fetch(ctx context.Context) (*Envelope, error) {
	if c.endpoint == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch failed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read fetch response: %w", err)
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse fetch response: %w", err)
	}
	if !wire.Success {
		return nil, fmt.Errorf("backend reported failure: %s", wire.Error)
	}

	env := wire.Envelope
	if env.HasData && env.QuestData == nil {
		// questData is present iff hasData; a body violating that is as
		// untrustworthy as unparsable JSON.
		return nil, fmt.Errorf("malformed fetch response: hasData set without questData")
	}
	if !env.HasData {
		// No row for today; the envelope still carries totalDays, history
		// and yesterday's row for pre-filling.
		env.QuestData = nil
		env.LastUpdate = nil
	}
	return &env, nil
}

// pushBody is the POST payload: the full record plus a client-stamped
// date/time string the backend uses as the row's last-update cell.
type pushBody struct {
	Date string `json:"date"`
	*quest.Record
}

// Push writes the record to the backend, fire-and-forget.
//
// Failures are logged and folded into PushResult; they are never retried
// here and never propagate as errors. The backend upserts by date, so a
// dropped write is repaired by the next one.
func (c *Client) Push(ctx context.Context, rec *quest.Record, stamp time.Time) PushResult {
	if c.endpoint == "" {
		c.logger.Printf("no endpoint configured, write stays local")
		return PushResult{Sent: false}
	}
	if rec == nil {
		return PushResult{Sent: false}
	}

	payload, err := json.Marshal(pushBody{
		Date:   stamp.Format("2006-01-02 15:04:05"),
		Record: rec,
	})
	if err != nil {
		c.logger.Printf("failed to marshal record: %v", err)
		return PushResult{Sent: false}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		c.logger.Printf("failed to build push request: %v", err)
		return PushResult{Sent: false}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("push failed: %v", err)
		return PushResult{Sent: false}
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; the ack is best-effort.
	var ack PushAck
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&ack); err == nil && ack.Action != "" {
		c.logger.Printf("push acknowledged: %s", ack.Action)
	}

	return PushResult{Sent: true}
}
