package handler

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"shop_backend/config"
	"shop_backend/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"
)

const orderFeedChannel = "orders:feed"

var (
	redisClient = redis.NewClient(&redis.Options{
		Addr: config.ConfigDefault("REDIS_ADDR", "localhost:6379"),
	})

	feedClients = make(map[*websocket.Conn]bool)
	feedMu      sync.Mutex
)

type orderEvent struct {
	Event string      `json:"event"`
	Order model.Order `json:"order"`
}

// BroadcastOrderEvent publishes an order event to the live feed. Fire and
// forget: a dead redis never touches the request path.
func BroadcastOrderEvent(event string, order model.Order) {
	go func() {
		payload, err := json.Marshal(orderEvent{Event: event, Order: order})
		if err != nil {
			return
		}
		if err := redisClient.Publish(context.Background(), orderFeedChannel, payload).Err(); err != nil {
			log.Printf("order feed publish failed: %v", err)
		}
	}()
}

// OrderFeedSocket streams order events to admin dashboard clients.
func OrderFeedSocket(c *websocket.Conn) {
	defer func() {
		feedMu.Lock()
		delete(feedClients, c)
		feedMu.Unlock()
		c.Close()
	}()

	feedMu.Lock()
	feedClients[c] = true
	feedMu.Unlock()

	pubsub := redisClient.Subscribe(context.Background(), orderFeedChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		payload := []byte(msg.Payload)

		feedMu.Lock()
		for conn := range feedClients {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(feedClients, conn)
			}
		}
		feedMu.Unlock()
	}
}
