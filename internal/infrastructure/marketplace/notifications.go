// Package marketplace talks to the marketplace REST API on behalf of a
// signed-in user.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

const maxErrorBody = 4 << 10

// NotificationClient implements ports.NotificationService over HTTP.
type NotificationClient struct {
	baseURL string
	http    *http.Client
}

func NewNotificationClient(baseURL string, client *http.Client) *NotificationClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &NotificationClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

func (c *NotificationClient) List(ctx context.Context, token string, page, limit int) (*domain.NotificationPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, http.MethodGet, "/notifications?"+q.Encode(), token)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	var out domain.NotificationPage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("list notifications: decode: %w", err)
	}
	if out.Items == nil {
		out.Items = []domain.Notification{}
	}
	return &out, nil
}

func (c *NotificationClient) MarkAsRead(ctx context.Context, token, id string) error {
	req, err := c.newRequest(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", token)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

func (c *NotificationClient) newRequest(ctx context.Context, method, path, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// checkStatus maps auth failures to ErrUnauthorized and every other
// non-2xx status to ErrUpstream.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d", domain.ErrUnauthorized, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
