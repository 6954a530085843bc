// Package identity implements the ClaimsAdmin port against the identity
// provider's admin API.
package identity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Client sets role custom claims through the identity provider's admin
// endpoint. Tokens issued after a successful call carry the new role.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client talking to the admin API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetRoleClaim assigns role to the subject identified by subjectID.
func (c *Client) SetRoleClaim(ctx context.Context, subjectID, role string) error {
	body, err := json.Marshal(map[string]string{"uid": subjectID, "role": role})
	if err != nil {
		return fmt.Errorf("marshaling claims request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/admin/claims", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating claims request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling identity admin API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity admin API returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
