package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inboxhub/internal/microservices/http-api/dto"
	"inboxhub/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestHTTPClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Register(&dto.RegisterRequest{Username: "alice"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "username already taken", apiErr.Message)
}

func TestHTTPClient_RefreshesOnce(t *testing.T) {
	var refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		var req dto.RefreshTokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != "old-refresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh"})
	})
	mux.HandleFunc("/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-access" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, dto.UnreadCountResponse{UnreadCount: 3})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	c.SetToken("expired")
	var stored *dto.TokenResponse
	c.SetRefresh("old-refresh", func(pair *dto.TokenResponse) { stored = pair })

	n, err := c.UnreadCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "new-access", c.Token())
	require.NotNil(t, stored)
	assert.Equal(t, "new-refresh", stored.RefreshToken)

	// rotated pair is reused, no second refresh
	_, err = c.UnreadCount()
	require.NoError(t, err)
	assert.Equal(t, 1, refreshCalls)
}

func TestHTTPClient_RefreshRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	c.SetToken("expired")
	c.SetRefresh("revoked", nil)

	_, err := c.Me()
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPClient_NoContentAndQuery(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications/rec-1/read", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, dto.InboxListResponse{Page: 2})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	require.NoError(t, c.MarkRead("rec-1"))

	page, err := c.ListInbox(InboxOptions{UnreadOnly: true, Type: "system", Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, "is_read=false&notification_type=system&page=2&page_size=5", gotQuery)
}

func TestWebSocketURL(t *testing.T) {
	u, err := WebSocketURL("http://localhost:8080/api/v1/")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/v1/notifications/ws", u)

	u, err = WebSocketURL("https://inbox.example.com/api/v1")
	require.NoError(t, err)
	assert.Equal(t, "wss://inbox.example.com/api/v1/notifications/ws", u)

	_, err = WebSocketURL("ftp://example.com")
	assert.Error(t, err)
}

func TestPrintMessage(t *testing.T) {
	link := "https://example.com/x"
	event := shared.DeliveryEvent{
		Type:   shared.EventNotification,
		UserID: "u1",
		Notification: shared.DeliveredNotification{
			ID: "n1", Type: "system", Title: "Maintenance", Content: "Down at 2am", ActionURL: &link, Priority: 2,
		},
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintMessage(&buf, data)
	assert.Contains(t, buf.String(), "[system] Maintenance")
	assert.Contains(t, buf.String(), "Down at 2am")
	assert.Contains(t, buf.String(), link)

	buf.Reset()
	PrintMessage(&buf, []byte("not json"))
	assert.Equal(t, "not json\n", buf.String())
}
