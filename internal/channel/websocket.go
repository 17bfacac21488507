package channel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/multiformats/go-multiaddr"
)

var ErrChannelClosed = errors.New("channel is closed")

// WebsocketChannel adapts a dialed websocket connection to the Channel
// interface. One goroutine owns reads; writes are serialized by a mutex.
type WebsocketChannel struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers Handlers
	closed   bool
	started  bool
}

// Dial connects to a websocket endpoint given either a multiaddr
// (/dns4/host/tcp/port/wss, /ip4/a.b.c.d/tcp/port/ws) or a plain ws:// wss://
// URL, and wraps the connection.
func Dial(ctx context.Context, endpoint string) (*WebsocketChannel, error) {
	url, err := resolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebsocketChannel(conn), nil
}

// NewWebsocketChannel wraps an already-established connection.
func NewWebsocketChannel(conn *websocket.Conn) *WebsocketChannel {
	return &WebsocketChannel{conn: conn}
}

// Attach installs the handler set and starts the read loop on first call.
func (c *WebsocketChannel) Attach(h Handlers) {
	c.mu.Lock()
	c.handlers = h
	start := !c.started && !c.closed
	if start {
		c.started = true
	}
	c.mu.Unlock()

	if h.OnOpen != nil {
		h.OnOpen()
	}
	if start {
		go c.readLoop()
	}
}

func (c *WebsocketChannel) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebsocketChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *WebsocketChannel) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		c.mu.Lock()
		h := c.handlers
		closed := c.closed
		c.mu.Unlock()
		if err != nil {
			if !closed && h.OnError != nil {
				h.OnError(err)
			}
			if h.OnClose != nil {
				h.OnClose()
			}
			return
		}
		if h.OnMessage != nil {
			h.OnMessage(data)
		}
	}
}

// resolveEndpoint turns a channel endpoint into a websocket URL. Multiaddr
// form is accepted so deployments can reuse the address notation the rest of
// the network config speaks.
func resolveEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("channel endpoint is required")
	}
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return endpoint, nil
	}
	addr, err := multiaddr.NewMultiaddr(endpoint)
	if err != nil {
		return "", fmt.Errorf("channel endpoint %q is neither a ws url nor a multiaddr: %w", endpoint, err)
	}
	var host, port, scheme string
	for _, p := range addr.Protocols() {
		switch p.Code {
		case multiaddr.P_DNS4, multiaddr.P_DNS6, multiaddr.P_DNS:
			host, _ = addr.ValueForProtocol(p.Code)
		case multiaddr.P_IP4, multiaddr.P_IP6:
			host, _ = addr.ValueForProtocol(p.Code)
		case multiaddr.P_TCP:
			port, _ = addr.ValueForProtocol(p.Code)
		case multiaddr.P_WS:
			scheme = "ws"
		case multiaddr.P_WSS:
			scheme = "wss"
		}
	}
	if host == "" || port == "" || scheme == "" {
		return "", fmt.Errorf("channel endpoint %q must carry host, tcp port and ws/wss", endpoint)
	}
	return fmt.Sprintf("%s://%s:%s", scheme, host, port), nil
}
