package server

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/chaoswave/status"
)

// client is one websocket subscriber; writeMu serializes every write on conn
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	writeMu sync.Mutex
	once    sync.Once
}

func (c *client) write(msgType int, data []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(msgType, data)
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// Hub fans binary frames out to websocket clients
// Membership changes go through register/unregister channels owned by Run
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	clients      map[*client]struct{} // Run goroutine only
	clientBuffer int
	writeTimeout time.Duration
	log          *slog.Logger

	count    atomic.Int64
	mClients *atomic.Int64
	mDropped *atomic.Int64
}

func NewHub(clientBuffer int, writeTimeout time.Duration, log *slog.Logger, reg *status.Registry) *Hub {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg = status.OrNew(reg)
	return &Hub{
		register:     make(chan *client),
		unregister:   make(chan *client),
		broadcast:    make(chan []byte, 16),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		clients:      make(map[*client]struct{}),
		clientBuffer: max(clientBuffer, 1),
		writeTimeout: writeTimeout,
		log:          log,
		mClients:     reg.Ints.Get("server.clients"),
		mDropped:     reg.Ints.Get("server.frames_dropped"),
	}
}

// Run owns client membership until Stop
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				h.setCount()
			}
		case frame := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					h.mDropped.Add(1) // Slow client skips this frame
				}
			}
		case <-h.stop:
			for c := range h.clients {
				c.write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), h.writeTimeout)
				c.close()
			}
			clear(h.clients)
			h.setCount()
			return
		}
	}
}

func (h *Hub) setCount() {
	h.count.Store(int64(len(h.clients)))
	h.mClients.Store(int64(len(h.clients)))
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Broadcast queues frame for every client; false when the hub is stopping or backed up
func (h *Hub) Broadcast(frame []byte) bool {
	select {
	case h.broadcast <- frame:
		return true
	case <-h.stop:
		return false
	default:
		h.mDropped.Add(1)
		return false
	}
}

// Clients returns the registered client count
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Serve registers conn, writes queued frames and blocks reading until the peer leaves
// The first frame is written before registration so a new client never waits a full frame interval
func (h *Hub) Serve(conn *websocket.Conn, first []byte) {
	c := &client{conn: conn, send: make(chan []byte, h.clientBuffer)}
	if first != nil {
		if err := c.write(websocket.BinaryMessage, first, h.writeTimeout); err != nil {
			conn.Close()
			return
		}
	}
	select {
	case h.register <- c:
	case <-h.stop:
		conn.Close()
		return
	}

	go func() {
		for frame := range c.send {
			if err := c.write(websocket.BinaryMessage, frame, h.writeTimeout); err != nil {
				h.log.Debug("websocket write failed", "error", err)
				h.leave(c)
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.leave(c)
			return
		}
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.stop:
	}
}
