package realtime

import (
	"context"
	"encoding/json"
	"expvar"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
)

// EventType for WebSocket messages
type EventType string

const EventReservationStatus EventType = "reservation:status"

// userEventsChannel fans pushes out to every gateway instance
const userEventsChannel = "ws:reservation_events"

var (
	wsConnectionsGauge   = expvar.NewInt("websocket_connections")
	wsEventsSentTotal    = expvar.NewInt("websocket_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("websocket_events_dropped_total")
)

// WSEvent represents a WebSocket event
type WSEvent struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// StatusData is the payload of a reservation:status event
type StatusData struct {
	ReservaID int64  `json:"reserva_id"`
	Estado    string `json:"estado"`
}

type userEventMessage struct {
	UserID           string          `json:"user_id"`
	Payload          json.RawMessage `json:"payload"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Connection represents a WebSocket connection
type Connection struct {
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub manages WebSocket connections with Redis Pub/Sub for multi-instance delivery
type Hub struct {
	connections map[int64]map[*Connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
}

// NewHub creates a hub. redisClient may be nil for single-instance deployments.
func NewHub(redisClient *redis.Client) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString())
}

// NewHubWithInstanceID creates a new WebSocket hub with explicit instance identifier.
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[int64]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, userEventsChannel)
	}

	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.UserID] == nil {
				h.connections[conn.UserID] = make(map[*Connection]bool)
			}
			h.connections[conn.UserID][conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)
			log.Debug().Int64("user_id", conn.UserID).Msg("User connected to WebSocket")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.connections[conn.UserID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					wsConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.UserID)
				}
			}
			h.mu.Unlock()
			log.Debug().Int64("user_id", conn.UserID).Msg("User disconnected from WebSocket")
		}
	}
}

func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Channel == userEventsChannel {
				h.handleUserEventPayload(msg.Payload)
			}
		}
	}
}

func (h *Hub) handleUserEventPayload(payload string) {
	var event userEventMessage
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return
	}
	if event.SenderInstanceID == h.instanceID {
		return
	}
	userID, err := strconv.ParseInt(event.UserID, 10, 64)
	if err != nil {
		return
	}
	h.sendLocal(userID, event.Payload)
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// NotifyReservationStatus pushes a reservation:status event to every connection of userID on
// any instance.
func (h *Hub) NotifyReservationStatus(ctx context.Context, userID, reservaID int64, estado hotelapi.Estado) {
	err := h.SendToUser(ctx, userID, &WSEvent{
		Type: EventReservationStatus,
		Data: StatusData{ReservaID: reservaID, Estado: string(estado)},
	})
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Int64("reserva_id", reservaID).Msg("failed to publish reservation push")
	}
}

// SendToUser sends event to all local connections of userID and publishes it for other instances.
func (h *Hub) SendToUser(ctx context.Context, userID int64, event *WSEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.sendLocal(userID, data)
	return h.publishUserEvent(ctx, userID, data)
}

func (h *Hub) sendLocal(userID int64, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[userID] {
		select {
		case conn.Send <- data:
			wsEventsSentTotal.Add(1)
		default:
			// Buffer full
			wsEventsDroppedTotal.Add(1)
			log.Warn().Int64("user_id", userID).Msg("WebSocket send buffer full")
		}
	}
}

func (h *Hub) publishUserEvent(ctx context.Context, userID int64, data []byte) error {
	if h.redis == nil {
		return nil
	}

	payload, err := json.Marshal(userEventMessage{
		UserID:           strconv.FormatInt(userID, 10),
		Payload:          data,
		SenderInstanceID: h.instanceID,
	})
	if err != nil {
		return err
	}
	return h.redis.Publish(context.WithoutCancel(ctx), userEventsChannel, payload).Err()
}

// GetConnectionCount returns number of local connections
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
