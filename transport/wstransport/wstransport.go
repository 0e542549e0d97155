// Package wstransport binds transport.Conn to a WebSocket connection via
// gorilla/websocket, the concrete medium the original implementation's
// ServerNetworkManager/ClientNetworkManager used.
package wstransport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/e7canasta/pixelmirror/transport"
)

// deadlineFrom converts ctx's deadline, if any, into the zero-value
// time.Time gorilla/websocket treats as "no deadline".
func deadlineFrom(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Time{}
}

var dialer = websocket.Dialer{}

// Dial returns a transport.DialFunc that connects to the given
// WebSocket URL, suitable for transport.New's DialFunc parameter.
func Dial(rawURL string) transport.DialFunc {
	return func(ctx context.Context) (transport.Conn, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("wstransport: parse url: %w", err)
		}
		conn, _, err := dialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("wstransport: dial: %w", err)
		}
		return &wsConn{conn: conn}, nil
	}
}

// wsConn adapts *websocket.Conn to transport.Conn: every logical frame
// of spec §4.4's wire format is sent as exactly one binary WebSocket
// message.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, msg []byte) error {
	if err := c.conn.SetWriteDeadline(deadlineFrom(ctx)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, msg)
}

func (c *wsConn) Recv(ctx context.Context) ([]byte, error) {
	if err := c.conn.SetReadDeadline(deadlineFrom(ctx)); err != nil {
		return nil, err
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("wstransport: recv: %w", err)
	}
	return data, nil
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// Accept upgrades an inbound HTTP request to a transport.Conn, for the
// server side of a session.
func Accept(w http.ResponseWriter, r *http.Request) (transport.Conn, error) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("wstransport: upgrade: %w", err)
	}
	return &wsConn{conn: conn}, nil
}
