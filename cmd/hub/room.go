package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	socketBufferSize  = 1024
	messageBufferSize = 64
	writeWait         = time.Second
)

// room fans messages out to every connected websocket client. A client that
// cannot keep up loses messages instead of stalling the fifo poller.
type room struct {
	forward chan []byte
	join    chan *client
	leave   chan *client
	clients map[*client]bool
	// done is closed when run returns
	done chan struct{}
}

func newRoom() *room {
	return &room{
		forward: make(chan []byte, messageBufferSize),
		join:    make(chan *client),
		leave:   make(chan *client),
		clients: make(map[*client]bool),
		done:    make(chan struct{}),
	}
}

func (r *room) run(ctx context.Context) {
	defer func() {
		for c := range r.clients {
			close(c.send)
		}
		close(r.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-r.join:
			r.clients[c] = true
			slog.Info("client joined", "remote", c.socket.RemoteAddr().String(), "clients", len(r.clients))
		case c := <-r.leave:
			if r.clients[c] {
				delete(r.clients, c)
				close(c.send)
			}
			slog.Info("client left", "clients", len(r.clients))
		case msg := <-r.forward:
			for c := range r.clients {
				select {
				case c.send <- msg:
				default:
					slog.Debug("client too slow, message dropped")
				}
			}
		}
	}
}

// broadcast queues msg without blocking.
func (r *room) broadcast(msg []byte) {
	select {
	case r.forward <- msg:
	default:
		slog.Debug("room backlog full, message dropped")
	}
}

var upgrader = &websocket.Upgrader{ReadBufferSize: socketBufferSize, WriteBufferSize: socketBufferSize}

func (r *room) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{
		socket: socket,
		send:   make(chan []byte, messageBufferSize),
	}
	select {
	case r.join <- c:
	case <-r.done:
		_ = socket.Close()
		return
	case <-req.Context().Done():
		_ = socket.Close()
		return
	}
	defer func() {
		select {
		case r.leave <- c:
		case <-r.done:
		}
	}()
	go c.write()
	c.read()
}

type client struct {
	socket *websocket.Conn
	send   chan []byte
}

// read discards incoming messages and returns when the peer goes away.
func (c *client) read() {
	defer func() { _ = c.socket.Close() }()
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) write() {
	defer func() { _ = c.socket.Close() }()
	for msg := range c.send {
		_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
