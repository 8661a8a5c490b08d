// Package websocket pushes queue change events to connected front-desk and
// doctor screens. Clients still poll; the feed only lets them refresh early.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

const EventQueueChanged = "queue.changed"

type Event struct {
	Type      string    `json:"type"`
	Topic     string    `json:"topic"`
	ClinicID  string    `json:"clinic_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// QueueTopic is the topic carrying queue events for one clinic.
func QueueTopic(clinicID uuid.UUID) string {
	return "queue:" + clinicID.String()
}

type Client struct {
	ID    string
	Topic string
	Send  chan []byte
}

// Hub tracks clients by topic.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  zerolog.Logger
	now     func() time.Time
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
		now:     time.Now,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.Topic] == nil {
		h.clients[client.Topic] = make(map[*Client]struct{})
	}
	h.clients[client.Topic][client] = struct{}{}
}

// Unregister removes the client and closes its Send channel. Safe to call
// more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := subs[client]; !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

// Publish sends event to every subscriber of event.Topic. Slow clients with
// a full buffer miss the event.
func (h *Hub) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[event.Topic] {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug().Str("client_id", client.ID).Str("topic", event.Topic).Msg("websocket buffer full, event dropped")
		}
	}
	return nil
}

// QueueChanged publishes a queue.changed event for the clinic.
func (h *Hub) QueueChanged(ctx context.Context, clinicID uuid.UUID, reason string) {
	topic := QueueTopic(clinicID)
	err := h.Publish(ctx, Event{
		Type:      EventQueueChanged,
		Topic:     topic,
		ClinicID:  clinicID.String(),
		Reason:    reason,
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("publish queue event")
	}
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from the dashboard origin; access is decided by the
	// bearer token and membership check below.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	hub     *Hub
	checker auth.MembershipChecker
	logger  zerolog.Logger
}

func NewHandler(hub *Hub, checker auth.MembershipChecker, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, checker: checker, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/queue", h.HandleQueue)
}

// HandleQueue upgrades a member of ?clinic_id= to a websocket that receives
// that clinic's queue events.
func (h *Handler) HandleQueue(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	clinicID, err := uuid.Parse(c.QueryParam("clinic_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic_id")
	}
	if _, err := auth.CheckClinicAccess(c.Request().Context(), h.checker, userID, clinicID, ""); err != nil {
		return err
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		return nil
	}

	client := &Client{
		ID:    uuid.NewString(),
		Topic: QueueTopic(clinicID),
		Send:  make(chan []byte, 32),
	}
	h.hub.Register(client)
	h.logger.Debug().Str("client_id", client.ID).Str("user_id", userID.String()).Str("topic", client.Topic).Msg("websocket connected")

	go h.writePump(client, ws)
	go h.readPump(client, ws)
	return nil
}

// readPump only services pongs and close frames; clients do not send
// anything meaningful.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()
	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()
	for {
		select {
		case msg, ok := <-client.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(gorillawebsocket.CloseMessage, nil)
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
