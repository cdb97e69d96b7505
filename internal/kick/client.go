package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pscheid92/kickcast/internal/domain"
)

// Kick rejects requests without browser-like headers.
var apiHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json",
	"Accept-Language": "en-US,en;q=0.9",
}

// Client talks to the Kick public HTTP API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the given API base URL, e.g.
// "https://kick.com/api/v2". timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// ResolveChatroomID looks up the chatroom id for a channel name.
func (c *Client) ResolveChatroomID(ctx context.Context, channel string) (int64, error) {
	var out struct {
		Chatroom struct {
			ID int64 `json:"id"`
		} `json:"chatroom"`
	}

	url := c.baseURL + "/channels/" + channel
	if err := c.getJSON(ctx, url, channel, &out); err != nil {
		return 0, err
	}
	if out.Chatroom.ID == 0 {
		return 0, &domain.ResolutionError{Channel: channel, Err: fmt.Errorf("response has no chatroom id")}
	}
	return out.Chatroom.ID, nil
}

// GetUsername fetches the username for a numeric user id. A lookup failure
// degrades to the placeholder "User_<id>" so subscription notifications can
// still go out.
func (c *Client) GetUsername(ctx context.Context, userID int64) string {
	var out struct {
		Username string `json:"username"`
	}

	placeholder := "User_" + strconv.FormatInt(userID, 10)
	url := c.baseURL + "/users/" + strconv.FormatInt(userID, 10)
	if err := c.getJSON(ctx, url, "", &out); err != nil || out.Username == "" {
		return placeholder
	}
	return out.Username
}

func (c *Client) getJSON(ctx context.Context, url, channel string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &domain.ResolutionError{Channel: channel, Err: err}
	}
	for k, v := range apiHeaders {
		req.Header.Set(k, v)
	}
	if channel != "" {
		req.Header.Set("Referer", "https://kick.com/"+channel)
		req.Header.Set("Origin", "https://kick.com")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &domain.ResolutionError{Channel: channel, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.ResolutionError{
			Channel: channel,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ResolutionError{Channel: channel, Err: err}
	}
	return nil
}
