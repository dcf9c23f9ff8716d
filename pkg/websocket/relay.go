package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultChannel is the redis channel game events are published on.
const DefaultChannel = "quizmaster:events"

// Relay shares broadcasts between server processes through redis pub/sub.
// Local clients are served directly; messages published by this process are
// ignored when they come back from redis.
type Relay struct {
	client  *redis.Client
	hub     *Hub
	channel string
	origin  string
}

type envelope struct {
	Origin  string          `json:"origin"`
	Code    string          `json:"code"`
	Message json.RawMessage `json:"message"`
}

func NewRelay(client *redis.Client, hub *Hub, channel string) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{
		client:  client,
		hub:     hub,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// Broadcast delivers the event locally and publishes it for other processes.
func (r *Relay) Broadcast(code, event string, payload interface{}) {
	data, err := encode(event, payload)
	if err != nil {
		slog.Error("error marshaling websocket message", "event", event, "error", err)
		return
	}
	r.hub.BroadcastToRoom(code, data)

	body, err := json.Marshal(envelope{Origin: r.origin, Code: code, Message: data})
	if err != nil {
		slog.Error("error marshaling relay envelope", "event", event, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		slog.Warn("failed to publish game event", "code", code, "event", event, "error", err)
	}
}

// Run forwards events published by other processes to local clients until
// ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	slog.Info("relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Warn("ignoring malformed relay message", "error", err)
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			r.hub.BroadcastToRoom(env.Code, env.Message)
		}
	}
}
