package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// AuthEvent is the wire shape of a published security event.
type AuthEvent struct {
	Kind       string `json:"kind"` // "rejected" or "rotated"
	ErrorType  string `json:"error_type,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	Timestamp  int64  `json:"timestamp"`
}

// AuthEventPublisher emits auth security events. A nil publisher is
// valid and drops everything, so callers never need a broker to run.
type AuthEventPublisher struct {
	rmq *RabbitMQ
}

func NewAuthEventPublisher(rmq *RabbitMQ) *AuthEventPublisher {
	if rmq == nil {
		return nil
	}
	return &AuthEventPublisher{rmq: rmq}
}

// PublishRejection emits a rejected-request event tagged with the
// failure type. Fire-and-forget.
func (p *AuthEventPublisher) PublishRejection(r *http.Request, errorType string) {
	if p == nil {
		return
	}
	p.dispatch(rejectedRoutingKey, AuthEvent{
		Kind:       "rejected",
		ErrorType:  errorType,
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
		Timestamp:  time.Now().Unix(),
	})
}

// PublishRotation emits a session-rotation event. Fire-and-forget.
func (p *AuthEventPublisher) PublishRotation(r *http.Request, ownerID string) {
	if p == nil {
		return
	}
	p.dispatch(rotatedRoutingKey, AuthEvent{
		Kind:       "rotated",
		OwnerID:    ownerID,
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
		Timestamp:  time.Now().Unix(),
	})
}

// dispatch publishes off the request's critical path with its own
// timeout. Failures are logged and dropped.
func (p *AuthEventPublisher) dispatch(routingKey string, event AuthEvent) {
	go func() {
		body, err := json.Marshal(event)
		if err != nil {
			slog.Error("failed to marshal auth event", slog.String("error", err.Error()))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.rmq.publish(ctx, routingKey, body); err != nil {
			slog.Warn("failed to publish auth event",
				slog.String("routing_key", routingKey),
				slog.String("error", err.Error()),
			)
		}
	}()
}
