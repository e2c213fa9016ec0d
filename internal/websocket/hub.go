package websocket

import (
	"context"
	"sync"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/logger"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/service"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule      = "Hub"
	clusterChannel = "cluster_events"
)

type Hub struct {
	// UserID -> connected clients (multi-device)
	clients map[uuid.UUID][]*connection

	register   chan *connection
	unregister chan *connection
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out; nil runs single instance.
	rdb        *redis.Client
	instanceId string

	logger logger.ILogger
}

type clusterMessage struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *connection),
		unregister: make(chan *connection),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*connection),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = append(h.clients[client.userID], client)
			h.mu.Unlock()
			h.logger.Info(hubModule, "Connection registered", map[string]interface{}{"user_id": client.userID})

		case client := <-h.unregister:
			h.remove(client)

		case <-h.done:
			return
		}
	}
}

// Close stops Run. Connected clients are left to time out.
func (h *Hub) Close() {
	close(h.done)
}

func (h *Hub) remove(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.clients[client.userID]
	for i, c := range clients {
		if c == client {
			h.clients[client.userID] = append(clients[:i], clients[i+1:]...)
			close(client.send)
			break
		}
	}
	if len(h.clients[client.userID]) == 0 {
		delete(h.clients, client.userID)
		h.logger.Info(hubModule, "User has no open connections", map[string]interface{}{"user_id": client.userID})
	}
}

// Send pushes a notification to every connection of the user, here and on other instances.
func (h *Hub) Send(userID uuid.UUID, notification entity.Notification) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": service.ToNotificationResponse(notification),
	})
	if err != nil {
		h.logger.Error(hubModule, "Failed to encode notification", map[string]interface{}{"error": err})
		return
	}

	h.deliverLocal(userID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceId, TargetUserID: userID.String(), Message: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn(hubModule, "Failed to publish to cluster", map[string]interface{}{"error": err})
		}
	}
}

func (h *Hub) deliverLocal(userID uuid.UUID, data []byte) {
	var slow []*connection
	h.mu.RLock()
	for _, client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn(hubModule, "Send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
		go func(c *connection) {
			select {
			case h.unregister <- c:
			case <-h.done:
			}
		}(client)
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-h.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn(hubModule, "Cluster message parse error", map[string]interface{}{"error": err})
				continue
			}
			if payload.Origin == h.instanceId {
				continue
			}
			uid, err := uuid.Parse(payload.TargetUserID)
			if err != nil {
				continue
			}
			h.deliverLocal(uid, payload.Message)
		}
	}
}
