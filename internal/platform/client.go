package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const maxErrorBody = 512

// Page is one page of raw records plus the cursor for the next one
type Page struct {
	Records    []json.RawMessage
	NextCursor string
}

// HasNext reports whether another page exists
func (p *Page) HasNext() bool {
	return p.NextCursor != ""
}

// Client issues authenticated paginated GETs against the Shopify Admin REST API
type Client struct {
	http       *resty.Client
	apiVersion string
}

// NewClient creates a new remote catalog client
func NewClient(baseURL, token, apiVersion string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("X-Shopify-Access-Token", token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, apiVersion: apiVersion}
}

// FetchPage fetches one page of resource. The response body is an envelope
// keyed by the resource name; the next cursor comes from the Link header.
func (c *Client) FetchPage(ctx context.Context, resource string, query map[string]string) (*Page, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(c.resourcePath(resource))
	if err != nil {
		return nil, &RemoteFetchError{Resource: resource, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &RemoteFetchError{
			Resource: resource,
			Status:   resp.StatusCode(),
			Err:      errors.New(truncate(string(resp.Body()), maxErrorBody)),
		}
	}

	records, err := decodeEnvelope(resp.Body(), resource)
	if err != nil {
		return nil, &RemoteFetchError{Resource: resource, Status: resp.StatusCode(), Err: err}
	}

	return &Page{
		Records:    records,
		NextCursor: NextCursor(resp.Header().Get("Link")),
	}, nil
}

func (c *Client) resourcePath(resource string) string {
	return fmt.Sprintf("/admin/api/%s/%s.json", c.apiVersion, resource)
}

func decodeEnvelope(body []byte, resource string) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", resource, err)
	}

	raw, ok := envelope[resource]
	if !ok || string(raw) == "null" {
		return []json.RawMessage{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s list: %w", resource, err)
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
