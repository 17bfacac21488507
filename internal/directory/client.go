// Package directory resolves a search string against the cached collection,
// then a remote relationship lookup, then a remote user lookup, so a
// never-contacted person can still be found and invited.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hangout-chat/go-client/pkg/models"
)

// LookupError is a failed remote directory request. It ends up in store
// state for the user to retry; it is never fatal.
type LookupError struct {
	Kind string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("directory %s lookup failed: %v", e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Client speaks to the request/response directory service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    httpClient,
	}
}

type relationshipsResponse struct {
	Relationships []models.Relationship `json:"relationships"`
}

type usersResponse struct {
	Users []models.User `json:"users"`
}

// SearchRelationships finds existing relationships matching the query.
func (c *Client) SearchRelationships(ctx context.Context, query string) ([]models.Relationship, error) {
	var out relationshipsResponse
	if err := c.get(ctx, "relationships", query, &out); err != nil {
		return nil, &LookupError{Kind: "relationship", Err: err}
	}
	return out.Relationships, nil
}

// SearchUsers finds directory users matching the query.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var out usersResponse
	if err := c.get(ctx, "users", query, &out); err != nil {
		return nil, &LookupError{Kind: "user", Err: err}
	}
	return out.Users, nil
}

func (c *Client) get(ctx context.Context, resource, query string, out any) error {
	endpoint := fmt.Sprintf("%s/%s?search=%s", c.baseURL, resource, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
