package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inboxhub/internal/shared"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

// ws_client.go = streams delivery events for the logged in user.

// WebSocketURL turns the HTTP API base URL into the notifications socket URL.
func WebSocketURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported API URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/notifications/ws"
	return u.String(), nil
}

// Watch prints incoming notifications to out until ctx is cancelled or the
// server closes the connection.
func Watch(ctx context.Context, apiURL, token string, out io.Writer) error {
	wsURL, err := WebSocketURL(apiURL)
	if err != nil {
		return err
	}

	// Connect with auth header
	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage once the user interrupts
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}
		PrintMessage(out, data)
	}
}

// PrintMessage pretty prints one server frame.
func PrintMessage(out io.Writer, data []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		fmt.Fprintf(out, "%s\n", data)
		return
	}

	switch head.Type {
	case "connected":
		color.New(color.FgGreen).Fprintln(out, "connected, waiting for notifications (Ctrl+C to quit)")
	case shared.EventNotification:
		var event shared.DeliveryEvent
		if err := json.Unmarshal(data, &event); err != nil {
			fmt.Fprintf(out, "%s\n", data)
			return
		}
		n := event.Notification
		priority := color.New(color.FgCyan)
		switch n.Priority {
		case 1:
			priority = color.New(color.FgYellow)
		case 2:
			priority = color.New(color.FgRed, color.Bold)
		}
		priority.Fprintf(out, "[%s] %s\n", n.Type, n.Title)
		fmt.Fprintf(out, "  %s\n", n.Content)
		if n.ActionURL != nil {
			color.New(color.FgHiBlack).Fprintf(out, "  %s\n", *n.ActionURL)
		}
	default:
		color.New(color.FgHiBlack).Fprintf(out, "%s\n", data)
	}
}
