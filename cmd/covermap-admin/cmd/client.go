package cmd

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

// Client is the API HTTP client.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	verbose    bool
}

// NewClient creates a new API client.
func NewClient(baseURL, apiToken string, verbose bool) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		verbose: verbose,
	}
}

// Do performs an HTTP request and returns the response body.
func (c *Client) Do(method, path string, body any) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(context.Background(), method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.verbose {
		fmt.Printf(">>> %s %s\n", method, url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if c.verbose {
		fmt.Printf("<<< %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, parseAPIError(resp.StatusCode, respBody)
	}

	return respBody, resp.StatusCode, nil
}

// Get performs a GET request.
func (c *Client) Get(path string) ([]byte, error) {
	data, _, err := c.Do(http.MethodGet, path, nil)
	return data, err
}

// Post performs a POST request.
func (c *Client) Post(path string, body any) ([]byte, error) {
	data, _, err := c.Do(http.MethodPost, path, body)
	return data, err
}

// Patch performs a PATCH request.
func (c *Client) Patch(path string, body any) ([]byte, error) {
	data, _, err := c.Do(http.MethodPatch, path, body)
	return data, err
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func parseAPIError(status int, body []byte) error {
	var e apiErrorBody
	if err := json.Unmarshal(body, &e); err != nil || e.Message == "" {
		return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
	}
	if len(e.Details) > 0 {
		parts := make([]string, len(e.Details))
		for i, d := range e.Details {
			parts[i] = d.Message
		}
		return fmt.Errorf("%s: %s", e.Message, strings.Join(parts, "; "))
	}
	if e.Detail != "" && e.Detail != e.Message {
		return fmt.Errorf("%s: %s", e.Message, e.Detail)
	}
	return fmt.Errorf("%s", e.Message)
}
