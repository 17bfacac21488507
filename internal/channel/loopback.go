package channel

import (
	"context"
	"sync"
)

// LoopbackChannel is an in-process duplex stream. Frames written by the local
// side land in the peer's handler; frames injected by the peer land here.
// Used by the mock transport and by tests. Frames arriving before a handler
// is attached are held back and delivered on attach.
type LoopbackChannel struct {
	mu       sync.Mutex
	handlers Handlers
	attached bool
	closed   bool
	mailbox  [][]byte
	sent     [][]byte
	onSend   func(data []byte)
}

func NewLoopback() *LoopbackChannel {
	return &LoopbackChannel{}
}

func (c *LoopbackChannel) Attach(h Handlers) {
	c.mu.Lock()
	c.handlers = h
	c.attached = true
	pending := c.mailbox
	c.mailbox = nil
	c.mu.Unlock()

	if h.OnOpen != nil {
		h.OnOpen()
	}
	for _, data := range pending {
		if h.OnMessage != nil {
			h.OnMessage(data)
		}
	}
}

func (c *LoopbackChannel) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	frame := append([]byte(nil), data...)
	c.sent = append(c.sent, frame)
	onSend := c.onSend
	c.mu.Unlock()

	if onSend != nil {
		onSend(frame)
	}
	return nil
}

func (c *LoopbackChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	h := c.handlers
	c.mu.Unlock()

	if h.OnClose != nil {
		h.OnClose()
	}
	return nil
}

// Inject delivers an inbound frame as if the peer had sent it.
func (c *LoopbackChannel) Inject(data []byte) {
	frame := append([]byte(nil), data...)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !c.attached {
		c.mailbox = append(c.mailbox, frame)
		c.mu.Unlock()
		return
	}
	h := c.handlers
	c.mu.Unlock()

	if h.OnMessage != nil {
		h.OnMessage(frame)
	}
}

// InjectError raises a transport error on the attached handler.
func (c *LoopbackChannel) InjectError(err error) {
	c.mu.Lock()
	h := c.handlers
	c.mu.Unlock()
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Sent returns a copy of every frame written so far.
func (c *LoopbackChannel) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	for i, frame := range c.sent {
		out[i] = append([]byte(nil), frame...)
	}
	return out
}

// OnSend registers a hook observing every outbound frame.
func (c *LoopbackChannel) OnSend(fn func(data []byte)) {
	c.mu.Lock()
	c.onSend = fn
	c.mu.Unlock()
}
