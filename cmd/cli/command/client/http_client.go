package client

// http_client.go = handles HTTP client functionality for the inboxctl application.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"inboxhub/internal/microservices/http-api/dto"
)

// ErrUnauthorized is returned when the API rejects the stored credentials
// and they could not be refreshed.
var ErrUnauthorized = errors.New("not authorized, please run 'inboxctl auth login'")

// APIError is a non-2xx answer of the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// defines the HTTP client structure and methods
type HTTPClient struct {
	baseURL      string
	httpClient   *http.Client
	token        string
	refreshToken string
	// onRefresh is called with the new pair after a transparent refresh
	onRefresh func(*dto.TokenResponse)
}

// constructor for HTTP client, apiURL includes the API prefix
func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// set token for HTTP client
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// Token returns the current access token, which changes after a refresh.
func (c *HTTPClient) Token() string {
	return c.token
}

// SetRefresh enables one transparent refresh-and-retry when a request gets 401.
func (c *HTTPClient) SetRefresh(refreshToken string, onRefresh func(*dto.TokenResponse)) {
	c.refreshToken = refreshToken
	c.onRefresh = onRefresh
}

// do sends a JSON request and decodes the JSON answer into out (may be nil).
func (c *HTTPClient) do(method, path string, body, out interface{}, wantStatus int) error {
	err := c.send(method, path, body, out, wantStatus)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && c.refreshToken != "" {
		pair, refreshErr := c.Refresh(c.refreshToken)
		if refreshErr != nil {
			return ErrUnauthorized
		}
		c.token = pair.AccessToken
		c.refreshToken = pair.RefreshToken
		if c.onRefresh != nil {
			c.onRefresh(pair)
		}
		return c.send(method, path, body, out, wantStatus)
	}
	return err
}

func (c *HTTPClient) send(method, path string, body, out interface{}, wantStatus int) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // Ensure the response body is closed

	if resp.StatusCode != wantStatus {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	// if decoding the response fails, return error
	return json.NewDecoder(resp.Body).Decode(out)
}

// Auth

func (c *HTTPClient) Register(request *dto.RegisterRequest) (*dto.UserResponse, error) {
	var result dto.UserResponse
	if err := c.send(http.MethodPost, "/auth/register", request, &result, http.StatusCreated); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Login(request *dto.LoginRequest) (*dto.TokenResponse, error) {
	var result dto.TokenResponse
	if err := c.send(http.MethodPost, "/auth/login", request, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

// Refresh never retries, a 401 here means the session is over.
func (c *HTTPClient) Refresh(refreshToken string) (*dto.TokenResponse, error) {
	var result dto.TokenResponse
	err := c.send(http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: refreshToken}, &result, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Logout() error {
	return c.do(http.MethodPost, "/auth/logout", nil, nil, http.StatusOK)
}

func (c *HTTPClient) Me() (*dto.UserResponse, error) {
	var result dto.UserResponse
	if err := c.do(http.MethodGet, "/auth/me", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) UpdateStatus(status string) error {
	return c.do(http.MethodPut, "/auth/me/status", dto.UpdateStatusRequest{Status: status}, nil, http.StatusOK)
}

// Inbox

// InboxOptions mirrors the query string of GET /notifications.
type InboxOptions struct {
	UnreadOnly bool
	Type       string
	Page       int
	PageSize   int
}

func (c *HTTPClient) ListInbox(opts InboxOptions) (*dto.InboxListResponse, error) {
	q := url.Values{}
	if opts.UnreadOnly {
		q.Set("is_read", "false")
	}
	if opts.Type != "" {
		q.Set("notification_type", opts.Type)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	path := "/notifications"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result dto.InboxListResponse
	if err := c.do(http.MethodGet, path, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) UnreadCount() (int64, error) {
	var result dto.UnreadCountResponse
	if err := c.do(http.MethodGet, "/notifications/unread-count", nil, &result, http.StatusOK); err != nil {
		return 0, err
	}
	return result.UnreadCount, nil
}

func (c *HTTPClient) GetRecord(recordID string) (*dto.RecordResponse, error) {
	var result dto.RecordResponse
	if err := c.do(http.MethodGet, "/notifications/"+url.PathEscape(recordID), nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) MarkRead(recordID string) error {
	return c.do(http.MethodPost, "/notifications/"+url.PathEscape(recordID)+"/read", nil, nil, http.StatusNoContent)
}

func (c *HTTPClient) MarkAllRead() (*dto.MarkAllReadResponse, error) {
	var result dto.MarkAllReadResponse
	if err := c.do(http.MethodPost, "/notifications/read-all", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) DeleteRecord(recordID string) error {
	return c.do(http.MethodDelete, "/notifications/"+url.PathEscape(recordID), nil, nil, http.StatusNoContent)
}

// Admin

func (c *HTTPClient) CreateNotification(request *dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	var result dto.NotificationResponse
	if err := c.do(http.MethodPost, "/admin/notifications", request, &result, http.StatusCreated); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListNotifications(skip, limit int) (*dto.NotificationListResponse, error) {
	var result dto.NotificationListResponse
	path := fmt.Sprintf("/admin/notifications?skip=%d&limit=%d", skip, limit)
	if err := c.do(http.MethodGet, path, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) SendNotification(id string, request *dto.SendNotificationRequest) (*dto.SendNotificationResponse, error) {
	var result dto.SendNotificationResponse
	if err := c.do(http.MethodPost, "/admin/notifications/"+url.PathEscape(id)+"/send", request, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) DeleteNotification(id string) error {
	return c.do(http.MethodDelete, "/admin/notifications/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}
