package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Viewers only listen.
	maxMessageSize = 512

	// Per-client send buffer; messages are dropped when it fills.
	sendBufferSize = 256
)

// ViewerCounter tracks how many live viewers each device has. Satisfied by
// the shadow repository.
type ViewerCounter interface {
	IncrementViewers(ctx context.Context, deviceMac string) error
	DecrementViewers(ctx context.Context, deviceMac string) error
}

// wsMessage is the frame sent to viewers.
type wsMessage struct {
	Event string                    `json:"event"`
	Data  api_models.RadarDataEvent `json:"data"`
}

// client is one connected viewer.
type client struct {
	topic string
	conn  *websocket.Conn
	send  chan []byte

	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub maintains viewer connections grouped into one room per device mac and
// broadcasts radar_data frames into them.
type Hub struct {
	mu      sync.Mutex
	rooms   map[string]map[*client]struct{}
	counter ViewerCounter
	logger  *logger.Logger

	upgrader websocket.Upgrader
}

var _ Publisher = (*Hub)(nil)

// NewHub creates a new broadcast hub
func NewHub(counter ViewerCounter, log *logger.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*client]struct{}),
		counter: counter,
		logger:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and serves the viewer until disconnect. The
// viewer count for the device goes up on join and back down on any exit
// path, normal or abnormal.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, deviceMac string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		topic: deviceMac,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
	}
	h.register(c)

	go c.writeLoop()
	c.readLoop()
	h.unregister(c)
	return nil
}

// Publish sends the event to every viewer in the device's room. Slow
// viewers get dropped messages, never a blocked sync cycle.
func (h *Hub) Publish(topic string, event api_models.RadarDataEvent) {
	data, err := json.Marshal(wsMessage{Event: "radar_data", Data: event})
	if err != nil {
		h.logger.ErrorWithError(err, "Failed to marshal broadcast message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[topic] {
		select {
		case c.send <- data:
		default:
			h.logger.WithField("device_mac", topic).Warn("Viewer send buffer full, dropping message")
		}
	}
}

// RoomSize returns the number of connected viewers for a device.
func (h *Hub) RoomSize(deviceMac string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[deviceMac])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	room, ok := h.rooms[c.topic]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.topic] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	if err := h.counter.IncrementViewers(context.Background(), c.topic); err != nil {
		h.logger.ErrorWithError(err, "Failed to increment viewer count")
	}
	h.logger.WithField("device_mac", c.topic).Info("Viewer connected")
}

// unregister is idempotent per client; the viewer count is decremented
// exactly once no matter how many exit paths fire.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	room, ok := h.rooms[c.topic]
	if ok {
		if _, member := room[c]; !member {
			ok = false
		} else {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.topic)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	c.close()
	if err := h.counter.DecrementViewers(context.Background(), c.topic); err != nil {
		h.logger.ErrorWithError(err, "Failed to decrement viewer count")
	}
	h.logger.WithField("device_mac", c.topic).Info("Viewer disconnected")
}

// writeLoop drains the send channel and keeps the connection alive with
// pings. It exits when the channel closes or a write fails.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes control frames until the peer goes away. Viewers do not
// send data; anything beyond the size limit kills the connection.
func (c *client) readLoop() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
