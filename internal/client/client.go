// Package client talks to the activities REST API on behalf of the web tier.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Activity is the API's public representation of an activity.
type Activity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateRequest is the body of POST /activities.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DeleteRequest is the body of DELETE /activities.
type DeleteRequest struct {
	ID string `json:"id"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// APIError is a non-2xx response from the API. Its message is the server's
// detail so it can be shown to the user as is.
type APIError struct {
	Status int
	Type   string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client is a thin JSON client for the activities API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// List returns every activity in server order.
func (c *Client) List(ctx context.Context) ([]Activity, error) {
	var out []Activity
	if err := c.Do(ctx, http.MethodGet, "/activities", "", nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Activity{}
	}
	return out, nil
}

// Create posts a new activity. A non-empty idempotencyKey is sent as the
// Idempotency-Key header so a resubmitted form does not create a duplicate.
func (c *Client) Create(ctx context.Context, token, name, description, idempotencyKey string) (Activity, error) {
	var header http.Header
	if idempotencyKey != "" {
		header = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}
	var out Activity
	err := c.Do(ctx, http.MethodPost, "/activities", token, header, CreateRequest{Name: name, Description: description}, &out)
	return out, err
}

// Delete removes the activity with the given id.
func (c *Client) Delete(ctx context.Context, token, id string) (DeleteResponse, error) {
	var out DeleteResponse
	err := c.Do(ctx, http.MethodDelete, "/activities", token, nil, DeleteRequest{ID: id}, &out)
	return out, err
}

// Do issues a JSON request against path. body and out may be nil.
func (c *Client) Do(ctx context.Context, method, path, token string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Type   string `json:"type"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		apiErr.Type = payload.Type
		apiErr.Detail = payload.Detail
		return apiErr
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Detail = text
		return apiErr
	}
	apiErr.Detail = http.StatusText(resp.StatusCode)
	return apiErr
}
