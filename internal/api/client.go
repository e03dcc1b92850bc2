package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the onboarding server. The zero value is not usable;
// construct with NewClient.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Chat performs one conversational round trip.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var resp ChatResponse
	err := c.do(ctx, http.MethodPost, "/chat", req, &resp)
	return resp, err
}

// PatchState applies direct field edits without a conversational turn.
func (c *Client) PatchState(ctx context.Context, req PatchRequest) (PatchResponse, error) {
	var resp PatchResponse
	err := c.do(ctx, http.MethodPatch, "/state", req, &resp)
	return resp, err
}

// do posts body as JSON and decodes the response into out. Non-2xx
// responses become an error carrying the response body text verbatim, so
// the controller can surface it behind its "Error: " prefix.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s", strings.TrimSpace(string(text)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
