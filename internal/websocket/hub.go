package websocket

import (
	"encoding/json"
	"log"

	"match-go/internal/events"
)

// Hub maintains the set of active notification clients and routes
// relationship events to the connection of their recipient.
type Hub struct {
	// Registered clients, mapping UserID to Client. One connection per user;
	// a new connection replaces the previous one.
	clients map[uint]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Events aimed at a specific user.
	direct chan *events.RelationshipEvent
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint]*Client),
		direct:     make(chan *events.RelationshipEvent, 256),
	}
}

// Deliver hands an event to the hub for delivery to its recipient.
// Non-blocking so a full hub never stalls the Kafka consumer.
func (h *Hub) Deliver(event *events.RelationshipEvent) {
	select {
	case h.direct <- event:
	default:
		log.Printf("警告: Hub direct channel is full. Dropping %s event for recipient %d", event.Type, event.RecipientID)
	}
}

// Run starts the hub and listens for registrations and events.
func (h *Hub) Run() {
	log.Println("WebSocket Hub Run loop started.")
	for {
		select {
		case client := <-h.register:
			if existingClient, ok := h.clients[client.UserID]; ok {
				log.Printf("警告: 用户 %d 已有连接，关闭旧连接并注册新连接。", client.UserID)
				close(existingClient.send)
			}
			h.clients[client.UserID] = client
			log.Printf("客户端已注册: UserID %d", client.UserID)

		case client := <-h.unregister:
			// Only remove the stored client if it is the same connection; a
			// replaced connection must not tear down its successor.
			if storedClient, ok := h.clients[client.UserID]; ok && storedClient == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("客户端已注销: UserID %d", client.UserID)
			}

		case event := <-h.direct:
			client, ok := h.clients[event.RecipientID]
			if !ok {
				continue // recipient not connected
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("错误: 无法序列化事件以发送给 UserID %d: %v", event.RecipientID, err)
				continue
			}
			select {
			case client.send <- payload:
			default:
				// Send buffer full: assume the client is slow or gone.
				log.Printf("警告: UserID %d 的发送通道已满或关闭，移除客户端。", event.RecipientID)
				close(client.send)
				delete(h.clients, event.RecipientID)
			}
		}
	}
}
