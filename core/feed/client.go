package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mattislub/Timed-Audio-Queue/core/engine"
)

// Client talks to the recordings API on behalf of the playback agent.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient creates an API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Login authenticates and stores the bearer token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected: %s", resp.Status)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return fmt.Errorf("failed to decode login payload: %w", err)
	}
	if data.Token == "" {
		return fmt.Errorf("login response carried no token")
	}

	c.token = data.Token
	return nil
}

// RecordingsPage is the recordings feed payload: the current listing plus
// the server's authoritative time sample.
type RecordingsPage struct {
	ServerTime time.Time          `json:"serverTime"`
	Recordings []engine.Recording `json:"recordings"`
}

// ListRecordings fetches the current non-expired recordings and the server
// time. Relative clip URLs are absolutized against the client base URL.
func (c *Client) ListRecordings(ctx context.Context) (RecordingsPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/recordings", nil)
	if err != nil {
		return RecordingsPage{}, fmt.Errorf("failed to build recordings request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return RecordingsPage{}, fmt.Errorf("recordings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RecordingsPage{}, fmt.Errorf("recordings request rejected: %s", resp.Status)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return RecordingsPage{}, fmt.Errorf("failed to decode recordings response: %w", err)
	}
	var page RecordingsPage
	if err := json.Unmarshal(envelope.Data, &page); err != nil {
		return RecordingsPage{}, fmt.Errorf("failed to decode recordings payload: %w", err)
	}

	for i := range page.Recordings {
		if strings.HasPrefix(page.Recordings[i].URL, "/") {
			page.Recordings[i].URL = c.baseURL + page.Recordings[i].URL
		}
	}
	return page, nil
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}
