package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const getAttempts = 3

// Client is a thin wrapper over the Kommo v4 REST API.
type Client struct {
	baseURL   string
	token     string
	pageLimit int
	client    *http.Client
	logger    *slog.Logger

	sleep func(time.Duration) // overridable in tests
}

func NewClient(baseURL, token string, pageLimit int, logger *slog.Logger) *Client {
	if pageLimit <= 0 {
		pageLimit = 100
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		pageLimit: pageLimit,
		client:    &http.Client{Timeout: 20 * time.Second},
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// FetchLeads pages through /api/v4/leads until limit leads are collected
// or the API returns an empty page.
func (c *Client) FetchLeads(ctx context.Context, limit int) ([]Lead, error) {
	var out []Lead
	page, remain := 1, limit
	for remain > 0 {
		perPage := c.pageLimit
		if remain < perPage {
			perPage = remain
		}
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("limit", strconv.Itoa(perPage))
		params.Set("with", "contacts")

		var resp struct {
			Embedded struct {
				Leads []Lead `json:"leads"`
			} `json:"_embedded"`
		}
		if err := c.getJSON(ctx, "/api/v4/leads", params, &resp); err != nil {
			return nil, fmt.Errorf("fetch leads page %d: %w", page, err)
		}
		if len(resp.Embedded.Leads) == 0 {
			break
		}
		out = append(out, resp.Embedded.Leads...)
		remain -= len(resp.Embedded.Leads)
		page++
	}
	return out, nil
}

// FetchLastNote returns the text of the most recent note on a lead, or ""
// when the lead has no notes.
func (c *Client) FetchLastNote(ctx context.Context, leadID int64) (string, error) {
	params := url.Values{}
	params.Set("limit", "1")
	params.Set("page", "1")
	params.Set("order[created_at]", "desc")

	var resp struct {
		Embedded struct {
			Notes []struct {
				Text   string `json:"text"`
				Params struct {
					Text string `json:"text"`
				} `json:"params"`
			} `json:"notes"`
		} `json:"_embedded"`
	}
	path := fmt.Sprintf("/api/v4/leads/%d/notes", leadID)
	if err := c.getJSON(ctx, path, params, &resp); err != nil {
		return "", fmt.Errorf("fetch last note for lead %d: %w", leadID, err)
	}
	if len(resp.Embedded.Notes) == 0 {
		return "", nil
	}
	note := resp.Embedded.Notes[0]
	if note.Params.Text != "" {
		return note.Params.Text, nil
	}
	return note.Text, nil
}

// FetchStageChangedAt returns the unix timestamp of the lead's most recent
// pipeline stage change, or 0 when no such event is recorded. The list
// endpoint does not expose this, so it comes from /api/v4/events.
func (c *Client) FetchStageChangedAt(ctx context.Context, leadID int64) (int64, error) {
	params := url.Values{}
	params.Set("limit", "1")
	params.Set("page", "1")
	params.Set("filter[entity]", "lead")
	params.Set("filter[entity_id]", strconv.FormatInt(leadID, 10))
	params.Set("filter[type]", "lead_status_changed")

	var resp struct {
		Embedded struct {
			Events []struct {
				CreatedAt int64 `json:"created_at"`
			} `json:"events"`
		} `json:"_embedded"`
	}
	if err := c.getJSON(ctx, "/api/v4/events", params, &resp); err != nil {
		return 0, fmt.Errorf("fetch stage events for lead %d: %w", leadID, err)
	}
	if len(resp.Embedded.Events) == 0 {
		return 0, nil
	}
	return resp.Embedded.Events[0].CreatedAt, nil
}

// CreateTask creates a follow-up task attached to a lead. completeTill is
// the task deadline; responsibleUserID of 0 leaves assignment to Kommo.
func (c *Client) CreateTask(ctx context.Context, leadID int64, text string, completeTill time.Time, responsibleUserID int64) error {
	task := map[string]any{
		"text":          text,
		"complete_till": completeTill.Unix(),
		"entity_id":     leadID,
		"entity_type":   "leads",
	}
	if responsibleUserID != 0 {
		task["responsible_user_id"] = responsibleUserID
	}
	body, err := json.Marshal([]map[string]any{task})
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v4/tasks", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("create task: status %d: %s", resp.StatusCode, string(respBody))
	}
	c.logger.Info("task created", "lead_id", leadID, "complete_till", completeTill.Unix())
	return nil
}

// getJSON performs a GET with a fixed retry loop. 204 and empty bodies
// decode as the zero value of out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if c.baseURL == "" || c.token == "" {
		return fmt.Errorf("kommo: base URL and access token are required")
	}

	var lastErr error
	for attempt := 1; attempt <= getAttempts; attempt++ {
		if err := c.getOnce(ctx, path, params, out); err != nil {
			lastErr = err
			if attempt < getAttempts {
				c.sleep(time.Duration(attempt) * time.Second)
			}
			continue
		}
		return nil
	}
	return lastErr
}

func (c *Client) getOnce(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, truncate(string(body), 300))
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "dealwatch/1.0")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
