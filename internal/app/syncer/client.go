package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
)

// HTTPClient — реализация API поверх REST-бэкенда
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetToken обновляет JWT токен после логина
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) FetchSummaries(ctx context.Context) ([]dto.RequestSummary, error) {
	var list dto.SummaryListResponse
	if err := c.get(ctx, "/api/requests/summary", &list); err != nil {
		return nil, err
	}
	return list.Requests, nil
}

func (c *HTTPClient) FetchFull(ctx context.Context, id string) (*ds.QuoteRequest, error) {
	var full ds.QuoteRequest
	if err := c.get(ctx, "/api/requests/"+url.PathEscape(id), &full); err != nil {
		return nil, err
	}
	return &full, nil
}

func (c *HTTPClient) SearchRequests(ctx context.Context, query string, limit int) ([]dto.RequestSummary, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var list dto.SummaryListResponse
	if err := c.get(ctx, "/api/requests/search?"+params.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Requests, nil
}
